package tool

import (
	"fmt"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
)

// ActionTTL bounds how long an abandoned handshake step can hold its guard.
const ActionTTL = 30 * time.Second

var (
	actionMu    sync.Mutex
	actionCache = ttlworker.NewCache[string, bool](ActionTTL)
)

// BeginAction marks a handshake step as in flight. A second caller gets an error
// until EndAction runs or the entry expires.
func BeginAction(key string) error {
	actionMu.Lock()
	defer actionMu.Unlock()
	if actionCache.Get(key) {
		return fmt.Errorf("action %s already in progress", key)
	}
	actionCache.Set(key, true)
	DefaultLogger.Debugf("Action %s started", key)
	return nil
}

// ActionInFlight reports whether key is currently guarded.
func ActionInFlight(key string) bool {
	return actionCache.Get(key)
}

func EndAction(key string) {
	actionCache.Delete(key)
	DefaultLogger.Debugf("Action %s finished", key)
}
