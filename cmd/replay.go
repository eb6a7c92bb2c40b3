package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/firewall"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
	"firestige.xyz/strix/internal/pipeline"
	"firestige.xyz/strix/internal/report"
)

var replayRulesFile string

var replayCmd = &cobra.Command{
	Use:   "replay <capture.pcap>",
	Short: "Replay a pcap file through the classification engine",
	Long: `Replay reads Ethernet frames from a pcap capture file and classifies
them exactly as live capture would, without touching the network.

When the default config file does not exist, replay falls back to the
built-in defaults (console sink, info logging), so a capture can be
analyzed ad hoc.

Examples:
  strix replay capture.pcap --rules rules.yml
  strix replay -c strix.yml capture.pcap`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runReplay(args[0])
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayRulesFile, "rules", "r", "", "rules file path (overrides config)")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(path string) {
	cfg := loadConfigOrDefault()
	if err := log.Init(cfg.Log); err != nil {
		exitWithError("failed to initialize logging", err)
	}

	rulesFile := cfg.Firewall.RulesFile
	if replayRulesFile != "" {
		rulesFile = replayRulesFile
	}
	rules, err := config.LoadRules(rulesFile)
	if err != nil {
		exitWithError("failed to load rules", err)
	}
	metrics.RulesLoaded.Set(float64(rules.Len()))
	engine := firewall.New(rules)

	reporters, err := report.Build(cfg.Report.Sinks)
	if err != nil {
		exitWithError("failed to build report sinks", err)
	}

	src, err := capture.NewFileSource(path)
	if err != nil {
		closeReporters(reporters)
		exitWithError("failed to open capture file", err)
	}

	p := pipeline.NewBuilder().
		WithSource(src).
		WithEngine(engine).
		WithReporters(reporters...).
		WithWorkers(cfg.Pipeline.Workers).
		WithQueueSize(cfg.Pipeline.QueueSize).
		WithDropWhenFull(false).
		WithLabel("file").
		Build()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := p.Run(ctx)

	closeReporters(reporters)
	if err := src.Close(); err != nil {
		logrus.WithError(err).Warning("failed to close capture file")
	}
	if runErr != nil {
		exitWithError("replay failed", runErr)
	}

	st := p.Stats()
	fmt.Printf("replayed %d frames: %d allowed, %d denied\n", st.Received, st.Allowed, st.Denied)
}

// loadConfigOrDefault loads the config file, falling back to built-in
// defaults when the default config path does not exist. An explicitly
// passed --config still has to resolve.
func loadConfigOrDefault() *config.Config {
	cfg, err := config.Load(configFile)
	if err == nil {
		return cfg
	}
	if rootCmd.PersistentFlags().Changed("config") || !errors.Is(err, os.ErrNotExist) {
		exitWithError("failed to load config", err)
	}
	cfg, err = config.Default()
	if err != nil {
		exitWithError("failed to build default config", err)
	}
	return cfg
}
