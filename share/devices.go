package share

import (
	"net"
	"strings"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/moyoez/fbxcast/discovery"
	"github.com/moyoez/fbxcast/tool"
)

// SeenBox is a box announcement kept for a while after an mDNS browse.
type SeenBox struct {
	discovery.Announcement
	SeenAt time.Time `json:"seen_at"`
}

// SelfNetworkInfo represents the local device's network information
type SelfNetworkInfo struct {
	InterfaceName string `json:"interface_name"`
	IPAddress     string `json:"ip_address"`
}

const (
	DefaultTTL = 120 * time.Second
)

var (
	SeenBoxes = ttlworker.NewCache[string, SeenBox](DefaultTTL)
)

// RememberBox caches an announcement under the box uid, or its host when the uid is missing.
func RememberBox(a discovery.Announcement) {
	key := a.Descriptor.UID
	if key == "" {
		key = a.Host
	}
	SeenBoxes.Set(key, SeenBox{Announcement: a, SeenAt: time.Now()})
	tool.DefaultLogger.Debugf("Remember box %s at %s", key, a.Host)
}

func ListSeenBoxes() []SeenBox {
	boxes := make([]SeenBox, 0)
	err := SeenBoxes.Range(func(_ string, v SeenBox) error {
		boxes = append(boxes, v)
		return nil
	})
	if err != nil {
		return nil
	}
	return boxes
}

// rejectInterface filters loopback, down and tunnel interfaces.
func rejectInterface(iface *net.Interface) bool {
	if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
		return true
	}
	name := strings.ToLower(iface.Name)
	for _, prefix := range []string{"tun", "tap", "utun", "wg", "docker", "veth"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// GetSelfNetworkInfos returns the usable IPv4 addresses of this host.
func GetSelfNetworkInfos() []SelfNetworkInfo {
	var result []SelfNetworkInfo

	interfaces, err := net.Interfaces()
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to get network interfaces: %v", err)
		return result
	}

	for _, iface := range interfaces {
		if rejectInterface(&iface) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			result = append(result, SelfNetworkInfo{
				InterfaceName: iface.Name,
				IPAddress:     ip.String(),
			})
		}
	}
	return result
}

// PreferredIP is the address a phone on the LAN should use for the control API.
func PreferredIP() string {
	infos := GetSelfNetworkInfos()
	for _, info := range infos {
		if net.ParseIP(info.IPAddress).IsPrivate() {
			return info.IPAddress
		}
	}
	if len(infos) > 0 {
		return infos[0].IPAddress
	}
	return "127.0.0.1"
}
