package discovery

import (
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/moyoez/fbxcast/tool"
)

// ProbeResult summarizes a reachability probe of the box.
type ProbeResult struct {
	Host        string        `json:"host"`
	Address     string        `json:"address"`
	Sent        int           `json:"sent"`
	Received    int           `json:"received"`
	PacketLoss  float64       `json:"packet_loss"`
	AvgRtt      time.Duration `json:"avg_rtt"`
	Reachable   bool          `json:"reachable"`
	Privileged  bool          `json:"privileged"`
	Description string        `json:"description"`
}

// Probe pings host count times. It runs unprivileged (UDP ICMP) unless privileged is set.
// Diagnostic only: it never feeds the connection state.
func Probe(host string, count int, timeout time.Duration, privileged bool) (ProbeResult, error) {
	if host == "" {
		host = tool.DefaultBoxHost
	}
	if count <= 0 {
		count = 3
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return ProbeResult{Host: host}, fmt.Errorf("resolve %s: %w", host, err)
	}
	pinger.Count = count
	pinger.Timeout = timeout
	pinger.Interval = 200 * time.Millisecond
	pinger.SetPrivileged(privileged)

	if err := pinger.Run(); err != nil {
		return ProbeResult{Host: host, Privileged: privileged}, fmt.Errorf("ping %s: %w", host, err)
	}
	stats := pinger.Statistics()
	result := ProbeResult{
		Host:       host,
		Address:    stats.IPAddr.String(),
		Sent:       stats.PacketsSent,
		Received:   stats.PacketsRecv,
		PacketLoss: stats.PacketLoss,
		AvgRtt:     stats.AvgRtt,
		Reachable:  stats.PacketsRecv > 0,
		Privileged: privileged,
	}
	result.Description = fmt.Sprintf("%d/%d packets, %.0f%% loss, avg %s", result.Received, result.Sent, result.PacketLoss, result.AvgRtt)
	tool.DefaultLogger.Debugf("Probe %s (%s): %s", host, result.Address, result.Description)
	return result, nil
}
