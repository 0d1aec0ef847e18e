package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/moyoez/fbxcast/tool"
)

// ConfigEnv overrides the default config path.
const ConfigEnv = "FBXCAST_CONFIG"

var overrides tool.Overrides

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fbxcast",
		Short:         "Pair with a Freebox and cast videos to its AirMedia player",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv(ConfigEnv)
	if defaultConfig == "" {
		defaultConfig = tool.DefaultConfigPath
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&overrides.ConfigPath, "config", defaultConfig, "config file path (env "+ConfigEnv+")")
	flags.StringVar(&overrides.Log, "log", "", "log mode: dev|prod|none")
	flags.StringVar(&overrides.Host, "host", "", "box host, default from config")
	flags.StringVar(&overrides.TargetReceiver, "receiver", "", "target AirMedia receiver name")
	flags.StringVar(&overrides.CredentialStore, "store", "", "credential store: file|keyring|memory")
	flags.StringVar(&overrides.NotifyURL, "notify", "", "webhook receiving phase changes")
	flags.BoolVar(&overrides.UseMDNS, "mdns", false, "fall back to mDNS when the box host does not answer")

	cmd.AddCommand(discoverCmd())
	cmd.AddCommand(pingCmd())
	cmd.AddCommand(pairCmd())
	cmd.AddCommand(sessionCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(receiversCmd())
	cmd.AddCommand(castCmd())
	cmd.AddCommand(stopCmd())
	cmd.AddCommand(serveCmd())
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd().Execute(); err != nil {
		tool.DefaultLogger.Error(describeError(err))
		return 1
	}
	return 0
}
