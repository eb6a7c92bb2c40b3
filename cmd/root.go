// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "strix",
	Short: "Strix is a passive packet classification engine",
	Long: `Strix captures link-layer frames, classifies them against an ordered
rule table and reports the resulting verdicts. It never forwards, drops
or injects traffic; it only observes and decides.

Frames are read either live from a network interface (AF_PACKET ring)
or offline from a pcap capture file. Each frame is parsed down to the
transport layer, matched against the rules in order, and handed to the
configured report sinks together with its verdict.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/strix/config.yml", "config file path")
}

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
