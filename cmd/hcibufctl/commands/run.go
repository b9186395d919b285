package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/hcibuf/control"
	"github.com/momentics/hcibuf/internal/logger"
	"github.com/momentics/hcibuf/pipeline"
	"github.com/momentics/hcibuf/pool"
)

var (
	runPackets     int
	runPayload     int
	runRing        uint64
	runWaitTimeout time.Duration
	runMetrics     string
	runLinger      time.Duration
	runWatch       bool
	runOutput      string
	runPinProducer int
	runPinConsumer int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive inbound ACL traffic through the pool",
	Long: `Run a driver/host pipeline against a pool built from configuration.
A producer acquires inbound ACL buffers, frames them with ACL and H4
headers and hands them over a ring; a consumer parses and releases them.
Exhaustion shows up as backpressure in the report, never as allocation.

Examples:
  # 10000 packets with the default layout
  hcibufctl run --packets 10000

  # Block on empty pool instead of spinning, expose metrics while running
  hcibufctl run --wait-timeout 5ms --metrics :9464 --linger 30s

  # Driver and host contexts on separate cores
  hcibufctl run --pin-producer 2 --pin-consumer 3`,
	RunE: runRun,
}

func init() {
	d := pipeline.DefaultConfig()
	runCmd.Flags().IntVar(&runPackets, "packets", d.Packets, "number of packets to move")
	runCmd.Flags().IntVar(&runPayload, "payload", d.PayloadSize, "payload bytes per packet")
	runCmd.Flags().Uint64Var(&runRing, "ring", d.RingSize, "hand-off ring size (power of two)")
	runCmd.Flags().DurationVar(&runWaitTimeout, "wait-timeout", 0, "block up to this long per acquire instead of retrying")
	runCmd.Flags().StringVar(&runMetrics, "metrics", "", "serve /metrics and /debug/state on this address (overrides config)")
	runCmd.Flags().DurationVar(&runLinger, "linger", 0, "keep serving metrics this long after the run")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "reload logging settings when the config file changes")
	runCmd.Flags().IntVar(&runPinProducer, "pin-producer", d.ProducerCPU, "pin the driver goroutine to this CPU (-1 to leave unpinned)")
	runCmd.Flags().IntVar(&runPinConsumer, "pin-consumer", d.ConsumerCPU, "pin the host goroutine to this CPU (-1 to leave unpinned)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// runResult is the structured form of a run.
type runResult struct {
	Report pipeline.Report `json:"report" yaml:"report"`
	Lists  map[string]any  `json:"lists" yaml:"lists"`
}

func runRun(cmd *cobra.Command, args []string) error {
	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	defer log.Close()

	p, err := control.NewPool(*cfg, pool.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	probes := control.NewDebugProbes()
	control.RegisterPoolProbes(probes, "pool", p)
	control.RegisterPlatformProbes(probes)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runWatch && cfgFile != "" {
		store := control.NewConfigStore(*cfg)
		store.OnReload(func(old, updated control.Config) {
			log.SetLevel(effectiveLevel(updated))
			if control.PoolLayoutChanged(old, updated) {
				log.Warn("pool layout changes take effect on restart")
			}
		})
		if err := control.WatchConfig(cfgFile, store, log.Logger); err != nil {
			return err
		}
	}

	listen := cfg.Metrics.Listen
	if runMetrics != "" {
		listen = runMetrics
	}
	if runMetrics != "" || cfg.Metrics.Enabled {
		srv, err := serveMetrics(listen, p, probes)
		if err != nil {
			return err
		}
		log.Info("serving metrics", "listen", listen)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pcfg := pipeline.DefaultConfig()
	pcfg.Packets = runPackets
	pcfg.PayloadSize = runPayload
	pcfg.RingSize = runRing
	pcfg.WaitTimeout = runWaitTimeout
	pcfg.ProducerCPU = runPinProducer
	pcfg.ConsumerCPU = runPinConsumer

	rep, err := pipeline.Run(ctx, p, pcfg, log.Logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := printRun(cmd, rep, p); err != nil {
		return err
	}

	if runLinger > 0 {
		select {
		case <-time.After(runLinger):
		case <-ctx.Done():
		}
	}
	return nil
}

func serveMetrics(listen string, p *pool.Pool, probes *control.DebugProbes) (*http.Server, error) {
	reg, err := control.NewRegistry(p)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", control.MetricsHandler(reg))
	mux.HandleFunc("/debug/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(probes.DumpState())
	})
	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return srv, nil
}

func printRun(cmd *cobra.Command, rep pipeline.Report, p *pool.Pool) error {
	stats := p.Stats()
	out := cmd.OutOrStdout()

	if runOutput != "table" {
		lists := make(map[string]any, len(stats.Lists))
		for name, ls := range stats.Lists {
			lists[name] = ls
		}
		return printStructured(out, runOutput, runResult{Report: rep, Lists: lists})
	}

	summary := newTableData("Metric", "Value")
	summary.addRow("produced", strconv.FormatUint(rep.Produced, 10))
	summary.addRow("consumed", strconv.FormatUint(rep.Consumed, 10))
	summary.addRow("payload bytes", strconv.FormatUint(rep.Bytes, 10))
	summary.addRow("exhausted", strconv.FormatUint(rep.Exhausted, 10))
	summary.addRow("ring full", strconv.FormatUint(rep.RingFull, 10))
	summary.addRow("elapsed", rep.Elapsed.String())
	printTable(out, summary)
	fmt.Fprintln(out)

	names := make([]string, 0, len(stats.Lists))
	for name := range stats.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	lists := newTableData("List", "Provisioned", "Free", "In Use", "Exhausted")
	for _, name := range names {
		ls := stats.Lists[name]
		lists.addRow(name, strconv.Itoa(ls.Provisioned), strconv.Itoa(ls.Free),
			strconv.Itoa(ls.InUse), strconv.FormatUint(ls.Exhausted, 10))
	}
	printTable(out, lists)
	return nil
}
