package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moyoez/fbxcast/discovery"
	"github.com/moyoez/fbxcast/share"
)

func discoverCmd() *cobra.Command {
	var browse bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Resolve the box descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if browse {
				announcement, err := discovery.BrowseMDNS(cmd.Context(), mdnsTimeout)
				if err != nil {
					return err
				}
				share.RememberBox(announcement)
				printDescriptor(announcement.Host, announcement.Descriptor)
				return nil
			}
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			desc, err := rt.discover(cmd.Context())
			if err != nil {
				return err
			}
			printDescriptor(rt.auth.Host(), desc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&browse, "browse", false, "only browse _fbx-api._tcp over mDNS")
	return cmd
}

func pingCmd() *cobra.Command {
	var (
		count      int
		privileged bool
	)
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the box answers ICMP echo",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			result, err := discovery.Probe(rt.cfg.Host, count, time.Duration(count+2)*time.Second, privileged)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s): %s\n", result.Host, result.Address, result.Description)
			if !result.Reachable {
				return fmt.Errorf("%s did not answer", result.Host)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 3, "echo requests to send")
	cmd.Flags().BoolVar(&privileged, "privileged", false, "use raw ICMP sockets")
	return cmd
}
