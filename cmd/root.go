package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iocost-sim/iocost-sim/sim"
	_ "github.com/iocost-sim/iocost-sim/sim/pagecache"
	"github.com/iocost-sim/iocost-sim/sim/trace"
)

var (
	// CLI flags shared by run, sweep and serve
	calibrationPath string // calibration YAML file
	hostName        string // section of the calibration file to use
	storeKind       string // dirty store model: page-cache or fifo
	dataDir         string // directory on the modeled device
	logLevel        string // Log verbosity level

	// run flags
	workloadPath    string // workload YAML file
	outPath         string // TSV file for per-call samples
	metricsTextfile string // prometheus textfile output
	traceLevel      string // per-call trace level: none or calls
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "iocost-sim",
	Short: "Predict the elapsed time of file writes under Linux dirty-page write-back",
}

// setupLogging applies --log; shared by every subcommand.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// newSimulator loads the selected calibration and binds it to a fresh store.
// kind overrides --store when non-empty.
func newSimulator(kind sim.StoreKind) *sim.Simulator {
	cal, err := loadCalibration(calibrationPath, hostName, dataDir)
	if err != nil {
		logrus.Fatalf("Failed to load calibration: %v", err)
	}
	if kind == "" {
		kind = sim.StoreKind(storeKind)
	}
	if !sim.IsValidStoreKind(string(kind)) {
		logrus.Fatalf("Unknown store %q; valid: page-cache, fifo", kind)
	}
	return sim.NewSimulator(cal, sim.NewDirtyStore(kind))
}

// runCmd replays a workload file through the simulator
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a workload and report predicted I/O costs",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if workloadPath == "" {
			logrus.Fatalf("--workload not provided. Exiting simulation.")
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, calls", traceLevel)
		}

		w, err := sim.LoadWorkload(workloadPath)
		if err != nil {
			logrus.Fatalf("Failed to load workload: %v", err)
		}
		if err := w.Validate(); err != nil {
			logrus.Fatalf("Invalid workload: %v", err)
		}
		// --store wins over the workload's own store only when given explicitly
		kind := w.Store
		if cmd.Flags().Changed("store") {
			kind = sim.StoreKind(storeKind)
		}
		s := newSimulator(kind)
		if traceLevel != "" && trace.TraceLevel(traceLevel) != trace.TraceLevelNone {
			s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		}

		logrus.Infof("Replaying %d calls from %s with store=%s on host %s",
			w.Calls(), workloadPath, kind, hostName)
		startTime := time.Now()
		samples := sim.Replay(s, w)
		logrus.Infof("Replay took %v", time.Since(startTime))

		s.Metrics().Print(s.Clock())
		if s.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}

		if outPath != "" {
			if err := writeSamplesFile(outPath, samples); err != nil {
				logrus.Fatalf("Failed to write samples: %v", err)
			}
			logrus.Infof("Wrote %d samples to %s", len(samples), outPath)
		}
		if metricsTextfile != "" {
			if err := writeMetricsTextfile(metricsTextfile, s); err != nil {
				logrus.Fatalf("Failed to write metrics textfile: %v", err)
			}
		}

		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&calibrationPath, "calibration", "calibration.yaml", "Path to calibration YAML file")
	rootCmd.PersistentFlags().StringVar(&hostName, "host", "default", "Calibrated host section to use")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "Directory on the modeled device; its filesystem block size fills a missing logical_block_size")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", string(sim.StorePageCache), "Dirty store model (page-cache, fifo)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Path to workload YAML file")
	runCmd.Flags().StringVar(&outPath, "out", "", "Write per-call samples as TSV to this file")
	runCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write final metrics in prometheus text format to this file")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Per-call trace level (none, calls)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
