package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moyoez/fbxcast/types"
)

func receiversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receivers",
		Short: "List AirMedia receivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.login(cmd.Context()); err != nil {
				return err
			}
			receivers, err := rt.cast.ListReceivers(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range receivers {
				mark := " "
				if r.Name == rt.cast.Target() {
					mark = "*"
				}
				fmt.Printf("%s %-24s video=%t password=%t\n", mark, r.Name, r.Capabilities.Video, r.PasswordProtected)
			}
			availability, err := rt.cast.FindTargetReceiver(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Target %q: %s\n", rt.cast.Target(), availability)
			return nil
		},
	}
}

func castCmd() *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "cast <url>",
		Short: "Play a video URL on the target receiver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.login(cmd.Context()); err != nil {
				return err
			}
			play := rt.cast.Play
			if replace {
				play = rt.cast.Replace
			}
			ok, err := play(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return acknowledged(ok, rt.cast.Target())
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "stop the current video first")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop playback on the target receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.login(cmd.Context()); err != nil {
				return err
			}
			ok, err := rt.cast.Stop(cmd.Context())
			if err != nil {
				return err
			}
			return acknowledged(ok, rt.cast.Target())
		},
	}
}

func acknowledged(ok bool, target string) error {
	if !ok {
		return fmt.Errorf("%s did not acknowledge", target)
	}
	fmt.Printf("%s: ok\n", target)
	return nil
}

func printDescriptor(host string, d types.DeviceDescriptor) {
	fmt.Printf("Host:        %s\n", host)
	fmt.Printf("Device:      %s (%s)\n", d.FriendlyName, d.DeviceType)
	fmt.Printf("UID:         %s\n", d.UID)
	fmt.Printf("API:         v%s at %s\n", d.APIVersion, d.APIBaseURL)
	if d.HTTPSAvailable {
		fmt.Printf("HTTPS:       %s:%d\n", d.APIDomain, d.HTTPSPort)
	}
}
