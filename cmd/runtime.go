package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/cast"
	"github.com/moyoez/fbxcast/discovery"
	"github.com/moyoez/fbxcast/notify"
	"github.com/moyoez/fbxcast/share"
	"github.com/moyoez/fbxcast/store"
	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

const mdnsTimeout = 3 * time.Second

// runtime is what every command needs: config, the authenticator and the cast controller.
type runtime struct {
	configPath string
	cfg        tool.AppConfig
	store      store.CredentialStore
	auth       *auth.Authenticator
	cast       *cast.Controller
}

func newRuntime() (*runtime, error) {
	configPath := tool.ResolveConfigPath(overrides.ConfigPath)
	cfg, err := tool.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	overrides.Apply(&cfg)
	tool.SetLogLevel(overrides.Log)
	if err := tool.InitLogger(cfg.LogDir); err != nil {
		tool.DefaultLogger.Warnf("File logging disabled: %v", err)
	}

	credStore, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	a := auth.New(auth.Options{
		Host:       cfg.Host,
		Identity:   cfg.Identity,
		HTTPClient: tool.NewHTTPClient(cfg.Timeouts),
		Store:      credStore,
	})
	if cfg.NotifyURL != "" {
		a.State().OnPhaseChange(notify.PhaseListener(cfg.NotifyURL, cfg.Host))
	}
	if _, err := a.Restore(); err != nil {
		tool.DefaultLogger.Warnf("%v", err)
	}
	return &runtime{
		configPath: configPath,
		cfg:        cfg,
		store:      credStore,
		auth:       a,
		cast:       cast.NewController(a, cfg.TargetReceiver),
	}, nil
}

func newStore(cfg tool.AppConfig) (store.CredentialStore, error) {
	switch cfg.CredentialStore {
	case tool.CredentialStoreFile:
		return store.NewFileStore(cfg.CredentialPath), nil
	case tool.CredentialStoreKeyring:
		return store.NewKeyringStore(cfg.Host), nil
	case tool.CredentialStoreMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

// discover resolves the descriptor, trying mDNS when enabled and the host does not answer.
func (r *runtime) discover(ctx context.Context) (types.DeviceDescriptor, error) {
	desc, err := r.auth.Discover(ctx)
	if err == nil || !r.cfg.UseMDNS {
		return desc, err
	}
	tool.DefaultLogger.Infof("Box host %s did not answer, browsing mDNS", r.cfg.Host)
	announcement, mdnsErr := discovery.BrowseMDNS(ctx, mdnsTimeout)
	if mdnsErr != nil {
		return types.DeviceDescriptor{}, errors.Join(err, mdnsErr)
	}
	share.RememberBox(announcement)
	if err := r.auth.Adopt(announcement.Host, announcement.Descriptor); err != nil {
		return types.DeviceDescriptor{}, err
	}
	return announcement.Descriptor, nil
}

// login discovers the box and opens a session with the stored app token.
func (r *runtime) login(ctx context.Context) error {
	if _, err := r.discover(ctx); err != nil {
		return err
	}
	if err := r.auth.EstablishSession(ctx, ""); err != nil {
		if errors.Is(err, types.ErrPrecondition) {
			return fmt.Errorf("%w (run `fbxcast pair` first)", err)
		}
		return err
	}
	return nil
}

// describeError renders the box's error_code/msg verbatim, or a generic unreachable message.
func describeError(err error) string {
	if be, ok := types.AsBoxError(err); ok {
		switch {
		case errors.Is(be, types.ErrProtocolRejected):
			return fmt.Sprintf("Freebox refused %s: %s (%s)", be.Op, be.Msg, be.Code)
		case errors.Is(be, types.ErrUnreachable):
			return "Freebox unreachable"
		}
	}
	return err.Error()
}
