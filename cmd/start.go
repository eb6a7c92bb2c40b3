package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
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

const pidFile = "/tmp/strix.pid"

var startInterface string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start live capture on a network interface",
	Long: `Start opens an AF_PACKET ring on the configured interface and runs the
classification pipeline until interrupted.

Capture requires CAP_NET_RAW, so strix is normally started as root.
The interface comes from the config file (capture.interface) and can be
overridden with --interface.

Examples:
  strix start -c /etc/strix/config.yml
  strix start -i eth0`,
	Run: func(cmd *cobra.Command, args []string) {
		runStart()
	},
}

func init() {
	startCmd.Flags().StringVarP(&startInterface, "interface", "i", "", "network interface to capture on (overrides config)")
	rootCmd.AddCommand(startCmd)
}

func runStart() {
	cfg, err := config.Load(configFile)
	if err != nil {
		exitWithError("failed to load config", err)
	}
	if err := log.Init(cfg.Log); err != nil {
		exitWithError("failed to initialize logging", err)
	}

	iface := cfg.Capture.Interface
	if startInterface != "" {
		iface = startInterface
	}
	if iface == "" {
		exitWithError("no capture interface", fmt.Errorf("set capture.interface in the config or pass --interface"))
	}

	if os.Geteuid() != 0 {
		logrus.Warning("not running as root, opening the capture socket will likely fail")
	}

	rules, err := config.LoadRules(cfg.Firewall.RulesFile)
	if err != nil {
		exitWithError("failed to load rules", err)
	}
	metrics.RulesLoaded.Set(float64(rules.Len()))
	engine := firewall.New(rules)

	reporters, err := report.Build(cfg.Report.Sinks)
	if err != nil {
		exitWithError("failed to build report sinks", err)
	}

	src, err := capture.NewAFPacketSource(capture.AFPacketConfig{
		Interface:    iface,
		SnapLen:      cfg.Capture.SnapLen,
		BufferSizeMB: cfg.Capture.BufferSizeMB,
		TimeoutMS:    cfg.Capture.TimeoutMS,
		Promiscuous:  cfg.Capture.Promiscuous,
		FanoutID:     uint16(cfg.Capture.FanoutID),
		BPF:          cfg.Capture.BPF,
	})
	if err != nil {
		closeReporters(reporters)
		exitWithError("failed to open capture", err)
	}

	var srv *metrics.Server
	if cfg.Metrics.Enabled {
		srv = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(); err != nil {
			src.Close()
			closeReporters(reporters)
			exitWithError("failed to start metrics server", err)
		}
	}

	if err := writePidFile(); err != nil {
		logrus.WithError(err).Warning("failed to write pid file")
	}
	defer os.Remove(pidFile)

	p := pipeline.NewBuilder().
		WithSource(src).
		WithEngine(engine).
		WithReporters(reporters...).
		WithWorkers(cfg.Pipeline.Workers).
		WithQueueSize(cfg.Pipeline.QueueSize).
		WithDropWhenFull(true).
		WithLabel(iface).
		Build()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.WithFields(logrus.Fields{
		"interface": iface,
		"rules":     rules.Len(),
		"default":   rules.Default().String(),
	}).Info("strix started")

	runErr := p.Run(ctx)

	closeReporters(reporters)
	if err := src.Close(); err != nil {
		logrus.WithError(err).Warning("failed to close capture source")
	}
	if srv != nil {
		if err := srv.Stop(context.Background()); err != nil {
			logrus.WithError(err).Warning("failed to stop metrics server")
		}
	}

	if runErr != nil {
		exitWithError("pipeline failed", runErr)
	}
}

func closeReporters(reporters []report.Reporter) {
	for _, r := range reporters {
		if err := r.Close(); err != nil {
			logrus.WithError(err).WithField("sink", r.Name()).Warning("failed to close report sink")
		}
	}
}

func writePidFile() error {
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
