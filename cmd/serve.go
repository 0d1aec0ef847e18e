package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moyoez/fbxcast/api"
	"github.com/moyoez/fbxcast/share"
	"github.com/moyoez/fbxcast/tool"
)

func serveCmd() *cobra.Command {
	var (
		port     int
		useHTTPS bool
		noQR     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides.ControlPort = port
			overrides.UseHTTPS = useHTTPS
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			// Best effort: the UI can trigger discovery later.
			if _, err := rt.discover(cmd.Context()); err != nil {
				tool.DefaultLogger.Warnf("Box not found yet: %s", describeError(err))
			}

			server := api.NewServer(rt.cfg.ControlPort, rt.cfg.ControlProtocol, api.Deps{
				Auth:      rt.auth,
				Cast:      rt.cast,
				NotifyURL: rt.cfg.NotifyURL,
			})
			controlURL := server.ControlURL(share.PreferredIP())
			fmt.Printf("Control API: %s\n", controlURL)
			if !noQR {
				if qr, err := tool.ControlURLQRCode(controlURL); err == nil {
					fmt.Print(qr)
				}
			}

			if watcher, err := tool.NewConfigWatcher(rt.configPath); err != nil {
				tool.DefaultLogger.Warnf("Config hot reload disabled: %v", err)
			} else if err := watcher.Start(); err != nil {
				tool.DefaultLogger.Warnf("Config hot reload disabled: %v", err)
			} else {
				defer watcher.Stop()
				watcher.OnChange(func(cfg tool.AppConfig) {
					overrides.Apply(&cfg)
					rt.cast.SetTarget(cfg.TargetReceiver)
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				tool.DefaultLogger.Info("Shutting down")
				logoutCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Timeouts.Total())
				defer cancel()
				if err := rt.auth.Logout(logoutCtx); err != nil {
					tool.DefaultLogger.Warnf("Logout on shutdown failed: %s", describeError(err))
				}
				return server.Stop()
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "control API port, default from config")
	cmd.Flags().BoolVar(&useHTTPS, "https", false, "serve the control API over HTTPS with a self-signed certificate")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "do not print the control URL QR code")
	return cmd
}
