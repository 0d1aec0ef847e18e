package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

// The box announces its API over mDNS with the descriptor fields as TXT records.
const (
	mdnsService = "_fbx-api._tcp"
	mdnsDomain  = "local"
)

// Announcement is a box found over mDNS.
type Announcement struct {
	Host       string                 `json:"host"` // host:port usable as the bootstrap host
	Descriptor types.DeviceDescriptor `json:"descriptor"`
}

// BrowseMDNS waits up to timeout for the first box announcement.
func BrowseMDNS(ctx context.Context, timeout time.Duration) (Announcement, error) {
	const op = "browse mdns"
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(mdnsService)
	params.Domain = mdnsDomain
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	queryErr := make(chan error, 1)
	go func() {
		queryErr <- mdns.Query(params)
		close(entries)
	}()

	for {
		select {
		case <-ctx.Done():
			return Announcement{}, types.Unreachable(op, ctx.Err())
		case entry, ok := <-entries:
			if !ok {
				if err := <-queryErr; err != nil {
					return Announcement{}, types.Unreachable(op, err)
				}
				return Announcement{}, types.Unreachable(op, fmt.Errorf("no %s announcement within %s", mdnsService, timeout))
			}
			ann, err := announcementFromEntry(entry)
			if err != nil {
				tool.DefaultLogger.Debugf("Ignoring mDNS entry %s: %v", entry.Name, err)
				continue
			}
			tool.DefaultLogger.Infof("Discovered box over mDNS: %s at %s", ann.Descriptor.FriendlyName, ann.Host)
			// drain so the query goroutine can finish
			go func() {
				for range entries {
				}
			}()
			return ann, nil
		}
	}
}

func announcementFromEntry(entry *mdns.ServiceEntry) (Announcement, error) {
	if entry == nil {
		return Announcement{}, fmt.Errorf("nil entry")
	}
	desc := ParseTXTRecords(entry.InfoFields)
	if desc.FriendlyName == "" {
		desc.FriendlyName = strings.TrimSuffix(entry.Name, "."+mdnsService+"."+mdnsDomain+".")
	}
	if !desc.Complete() {
		return Announcement{}, fmt.Errorf("txt records lack api_base_url or api_version")
	}
	var ip net.IP
	switch {
	case entry.AddrV4 != nil:
		ip = entry.AddrV4
	case entry.Addr != nil:
		ip = entry.Addr
	default:
		return Announcement{}, fmt.Errorf("no address")
	}
	host := ip.String()
	if entry.Port != 0 && entry.Port != 80 {
		host = net.JoinHostPort(host, strconv.Itoa(entry.Port))
	}
	return Announcement{Host: host, Descriptor: desc}, nil
}

// ParseTXTRecords builds a descriptor from key=value TXT fields.
func ParseTXTRecords(fields []string) types.DeviceDescriptor {
	var desc types.DeviceDescriptor
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "uid":
			desc.UID = value
		case "device_name":
			desc.FriendlyName = value
		case "api_version":
			desc.APIVersion = value
		case "api_base_url":
			desc.APIBaseURL = value
		case "device_type":
			desc.DeviceType = value
		case "api_domain":
			desc.APIDomain = value
		case "https_available":
			desc.HTTPSAvailable = value == "1" || strings.EqualFold(value, "true")
		case "https_port":
			if port, err := strconv.Atoi(value); err == nil {
				desc.HTTPSPort = port
			}
		}
	}
	return desc
}
