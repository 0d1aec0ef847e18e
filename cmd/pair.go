package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/moyoez/fbxcast/types"
)

// ApprovalWindow is how long the box front panel waits for the user.
const ApprovalWindow = 90 * time.Second

func pairCmd() *cobra.Command {
	var (
		interval time.Duration
		window   time.Duration
		noLogin  bool
	)
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Request an app token and wait for approval on the box",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := rt.discover(ctx); err != nil {
				return err
			}
			cred, err := rt.auth.RequestAppToken(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Confirm the connection on the Freebox front panel (you have %s, track id %d)\n", window, cred.TrackID)

			status, err := waitForApproval(ctx, rt.auth.PollApproval, interval, window)
			if err != nil {
				return err
			}
			if status != types.ApprovalGranted {
				return fmt.Errorf("pairing %s, run pair again", status)
			}
			fmt.Println("Pairing granted")
			if noLogin {
				return nil
			}
			if err := rt.auth.EstablishSession(ctx, ""); err != nil {
				return err
			}
			fmt.Println("Session opened")
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "approval poll interval")
	cmd.Flags().DurationVar(&window, "timeout", ApprovalWindow, "how long to wait for approval")
	cmd.Flags().BoolVar(&noLogin, "no-login", false, "stop once the token is granted")
	return cmd
}

// waitForApproval polls until the status leaves pending or the window elapses.
// The limiter gives up early when the next poll would land past the window.
func waitForApproval(parent context.Context, poll func(context.Context) (types.ApprovalStatus, error), interval, window time.Duration) (types.ApprovalStatus, error) {
	ctx, cancel := context.WithTimeout(parent, window)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if parentErr := parent.Err(); parentErr != nil {
				return types.ApprovalPending, parentErr
			}
			return types.ApprovalPending, fmt.Errorf("no approval within %s", window)
		}
		status, err := poll(ctx)
		if err != nil {
			return status, err
		}
		if status != types.ApprovalPending {
			return status, nil
		}
	}
}
