// Lookaround finds the other machines running lookaround on the local
// network and reports their MAC address, IP address and nickname.
//
// Every participating machine runs `lookaround server`. Running
// `lookaround client` sends a request to a multicast group and prints
// whoever answered:
//
//	Found 2 peers:
//	<Unknown> = 192.168.1.9:9040
//	02:00:5e:10:20:30 = 192.168.1.50 `desk`
//
// Usage:
//
//	lookaround [command] [flags]
//
// See 'lookaround --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lookaround/lookaround/internal/config"
	"github.com/lookaround/lookaround/internal/logging"
	"github.com/lookaround/lookaround/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "lookaround",
	Short: "Find peers on the local network by MAC and nickname",
	Long: `Lookaround discovers other lookaround servers on the local network.

Servers listen on the multicast group 225.100.99.98:9040 and answer each
request with their MAC address and nickname. The client prints every peer
that answered within the timeout, sorted by MAC address.

Nicknames can also be assigned locally per MAC address with
'lookaround config set-nick'.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return logging.InitializeFromEnv()
		}
		return logging.Initialize(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar+", silent if unset")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default is the OS config dir)")

	rootCmd.AddCommand(versionCmd)
}

// loadRegistry loads the config file named by --config, or the default one
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "lookaround %s (commit: %s, %s, %s)\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
