package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Open a session with the stored app token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.login(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Phase: %s\n", rt.auth.Phase())
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Re-verify the stored app token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if _, err := rt.discover(cmd.Context()); err != nil {
				return err
			}
			validity, err := rt.auth.CheckAppToken(cmd.Context())
			fmt.Printf("App token: %s\n", validity)
			return err
		},
	}
}

func logoutCmd() *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Close the session, optionally forgetting the app token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			if forget {
				if err := rt.store.Clear(); err != nil {
					return fmt.Errorf("clear app token: %w", err)
				}
				fmt.Println("App token forgotten, run pair to connect again")
			}
			fmt.Printf("Phase: %s\n", rt.auth.Phase())
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also delete the stored app token")
	return cmd
}
