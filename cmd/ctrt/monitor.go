package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iowarp/context-runtime/pkg/log"
	"github.com/iowarp/context-runtime/pkg/metrics"
	"github.com/iowarp/context-runtime/pkg/scheduler"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Report scheduler worker stats",
	Long: `monitor prints the SystemMonitor report on an interval. With
--json it emits one JSON object per tick with a workers array whose
fields are exactly those SystemMonitor exposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		workers, _ := cmd.Flags().GetInt("workers")
		interval, _ := cmd.Flags().GetInt("interval")
		once, _ := cmd.Flags().GetBool("once")
		jsonOut, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		rt, err := newRuntime(1, dataDir, workers)
		if err != nil {
			return fmt.Errorf("start runtime: %w", err)
		}
		defer rt.Close()

		collector := metrics.NewCollector(statsSource(rt), time.Duration(interval)*time.Second)
		collector.Start()
		defer collector.Stop()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("admin_raft", true, "bootstrapped")
		metrics.RegisterComponent("fabric", true, "ready")
		metrics.RegisterComponent("rpc", false, "not started")

		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())
			go func() {
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					log.WithComponent("monitor").Error().Err(err).Msg("metrics server stopped")
				}
			}()
			fmt.Printf("Metrics endpoint: http://%s/metrics\n", metricsAddr)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(time.Duration(interval) * time.Second)
		defer ticker.Stop()

		report := func() {
			stats := rt.admin.SystemMonitor()
			if jsonOut {
				printMonitorJSON(stats)
			} else {
				printMonitorTable(stats, verbose)
			}
		}

		report()
		if once {
			return nil
		}

		for {
			select {
			case <-ticker.C:
				report()
			case <-sigCh:
				return nil
			}
		}
	},
}

func init() {
	monitorCmd.Flags().Int("interval", 5, "Seconds between reports")
	monitorCmd.Flags().Bool("once", false, "Print a single report and exit")
	monitorCmd.Flags().Bool("json", false, "Emit one JSON object per tick")
	monitorCmd.Flags().Bool("verbose", false, "Include idle-iteration and suspend-period columns")
	monitorCmd.Flags().String("metrics-addr", "", "If set, serve /metrics and /health on this address")
}

// monitorReport is the --json output shape: a workers array whose
// fields match scheduler.Stats exactly (spec.md 4.F/8).
type monitorReport struct {
	Workers []scheduler.Stats `json:"workers"`
}

func printMonitorJSON(stats []scheduler.Stats) {
	_ = json.NewEncoder(os.Stdout).Encode(monitorReport{Workers: stats})
}

func printMonitorTable(stats []scheduler.Stats, verbose bool) {
	fmt.Printf("%-10s %-8s %-8s %-8s %-8s %-8s\n", "WORKER", "RUNNING", "ACTIVE", "QUEUED", "BLOCKED", "PERIODIC")
	for _, s := range stats {
		fmt.Printf("%-10d %-8t %-8t %-8d %-8d %-8d\n",
			s.WorkerID, s.IsRunning, s.IsActive, s.NumQueuedTasks, s.NumBlockedTasks, s.NumPeriodicTask)
		if verbose {
			fmt.Printf("  idle_iterations=%d suspend_period_us=%d\n", s.IdleIterations, s.SuspendPeriodUs)
		}
	}
}

// statsSource adapts admin.Service.SystemMonitor to metrics.StatsSource.
func statsSource(rt *runtime) metrics.StatsSource {
	return func() []metrics.WorkerStats {
		stats := rt.admin.SystemMonitor()
		out := make([]metrics.WorkerStats, len(stats))
		for i, s := range stats {
			out[i] = metrics.WorkerStats{
				WorkerID:        s.WorkerID,
				IsRunning:       s.IsRunning,
				IsActive:        s.IsActive,
				IdleIterations:  s.IdleIterations,
				NumQueuedTasks:  s.NumQueuedTasks,
				NumBlockedTasks: s.NumBlockedTasks,
				NumPeriodicTask: s.NumPeriodicTask,
				SuspendPeriodUs: s.SuspendPeriodUs,
			}
		}
		return out
	}
}
