package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/slopeviz/internal/config"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/session"
	"github.com/san-kum/slopeviz/internal/stats"
	"github.com/san-kum/slopeviz/internal/storage"
	"github.com/san-kum/slopeviz/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logFile  string

	configFile string
	preset     string
	theme      string
	watch      bool

	n        int
	varX     float64
	varErr   float64
	steps    int
	realtime bool
	noBand   bool
	roundSE  bool

	phaseName  string
	step       int
	outPath    string
	withFrames bool
)

// main registers the command tree and opens the TUI when no subcommand is
// given. It exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "slopeviz",
		Short:         "animate the sampling variability of an OLS slope",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".slopeviz", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	addSessionFlags(rootCmd)
	addTUIFlags(rootCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal view",
		RunE:  runTUI,
	}
	addSessionFlags(tuiCmd)
	addTUIFlags(tuiCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one animation headless and save it",
		RunE:  runHeadless,
	}
	addSessionFlags(runCmd)
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "pace ticks in wall-clock time")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the slope trace of a run (latest if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	csvCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	csvCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	jsonCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	jsonCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	jsonCmd.Flags().BoolVar(&withFrames, "frames", false, "include every frame")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render one animation frame to SVG or PNG",
		RunE:  snapshot,
	}
	addSessionFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&phaseName, "phase", "idle", "phase (idle, rising, falling, returning)")
	snapshotCmd.Flags().IntVar(&step, "step", 0, "step within the phase")
	snapshotCmd.Flags().StringVarP(&outPath, "out", "o", "slope.svg", "output file (.svg or .png)")

	gifCmd := &cobra.Command{
		Use:   "gif",
		Short: "render a full animation to an animated GIF",
		RunE:  renderGIF,
	}
	addSessionFlags(gifCmd)
	gifCmd.Flags().StringVarP(&outPath, "out", "o", "slope.gif", "output file")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "print derived statistics for the given parameters",
		RunE:  printStats,
	}
	addSessionFlags(statsCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(tuiCmd, runCmd, listCmd, plotCmd, csvCmd, jsonCmd,
		snapshotCmd, gifCmd, statsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&n, "n", stats.DefaultN, "sample size")
	cmd.Flags().Float64Var(&varX, "vx", stats.DefaultVarX, "variance of x")
	cmd.Flags().Float64Var(&varErr, "ve", stats.DefaultVarErr, "error variance")
	cmd.Flags().IntVar(&steps, "steps", 0, "ticks per phase (default from config)")
	cmd.Flags().BoolVar(&noBand, "no-band", false, "do not draw the confidence band")
	cmd.Flags().BoolVar(&roundSE, "round-se", false, "derive bounds from the two-decimal SE readout")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
}

func addTUIFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&watch, "watch", false, "reload --config when it changes")
}

// loadConfig layers defaults, preset, config file and explicit flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Params.N = n
	}
	if flags.Changed("vx") {
		cfg.Params.VarX = varX
	}
	if flags.Changed("ve") {
		cfg.Params.VarErr = varErr
	}
	if flags.Changed("steps") {
		cfg.Animation.StepsPerPhase = steps
	}
	if flags.Changed("no-band") {
		cfg.Animation.ShowBand = !noBand
	}
	if flags.Changed("round-se") {
		cfg.Parity.RoundSE = roundSE
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Without --log-file it writes to
// fallback; the TUI passes io.Discard so logs do not tear the screen.
func newLogger(fallback io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}

	out, closeFn := fallback, func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		out, closeFn = f, func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, closeFn, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	m, err := viz.NewModel(cfg, logger)
	if err != nil {
		return err
	}
	m.OnRecord = func(frames []render.Frame) (string, error) {
		path := fmt.Sprintf("slopeviz-%s.gif", time.Now().Format("20060102-150405"))
		return path, writeGIF(path, frames, cfg)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	if watch && configFile != "" {
		w, err := config.NewWatcher(configFile, logger.With("component", "config"))
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx, func(c *config.Config) {
			p.Send(viz.ConfigMsg{Config: c})
		})
	}

	_, err = p.Run()
	return err
}

// record runs one full animation and returns every frame drawn.
func record(ctx context.Context, cfg *config.Config, logger *slog.Logger, paced bool) (*session.Session, []render.Frame, error) {
	rec := render.NewRecorder()
	s, err := session.New(cfg.Params, cfg.AnimOptions(), rec, logger)
	if err != nil {
		return nil, nil, err
	}
	s.Start()
	if paced {
		if err := s.Play(ctx); err != nil {
			return s, rec.Frames, err
		}
	} else {
		s.Finish()
	}
	return s, rec.Frames, nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	s, frames, err := record(ctx, cfg, logger, realtime)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(runMetadata(s, cfg), frames)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", runID, "frames", len(frames), "elapsed", time.Since(start))

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	printRun(os.Stdout, meta)
	fmt.Println()
	fmt.Println(slopeGraph(frames))
	return nil
}

func runMetadata(s *session.Session, cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Params:        s.Params(),
		Derived:       s.Derived(),
		Bounds:        s.State().Bounds,
		Coverage:      s.Coverage(),
		StepsPerPhase: cfg.Animation.StepsPerPhase,
		TickMillis:    int64(cfg.Animation.TickMillis),
		RoundSE:       cfg.Parity.RoundSE,
	}
}

func printRun(w io.Writer, meta *storage.RunMetadata) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", meta.ID)
	fmt.Fprintf(tw, "params\tn=%d  var(x)=%g  var(e)=%g\n", meta.Params.N, meta.Params.VarX, meta.Params.VarErr)
	fmt.Fprintf(tw, "se\t%s\n", stats.Readout(meta.Derived.SE))
	fmt.Fprintf(tw, "bounds\t[%s, %s]\n", stats.Readout(meta.Bounds.Lower), stats.Readout(meta.Bounds.Upper))
	fmt.Fprintf(tw, "frames\t%d\n", meta.Frames)
	tw.Flush()
}

func slopeGraph(frames []render.Frame) string {
	slopes := render.Slopes(frames)
	if len(slopes) == 0 {
		return "no slope data"
	}
	return asciigraph.Plot(slopes,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Precision(2),
		asciigraph.Caption("slope vs frame"),
	)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tVAR_X\tVAR_E\tSE\tBOUNDS\tFRAMES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%s\t[%s, %s]\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Params.N,
			run.Params.VarX,
			run.Params.VarErr,
			stats.Readout(run.Derived.SE),
			stats.Readout(run.Bounds.Lower),
			stats.Readout(run.Bounds.Upper),
			run.Frames,
		)
	}
	return w.Flush()
}

// resolveRun loads the named run, or the latest one when args is empty.
func resolveRun(args []string) (*storage.Store, *storage.RunMetadata, error) {
	st := storage.New(dataDir)
	if len(args) == 0 {
		meta, err := st.Latest()
		return st, meta, err
	}
	meta, err := st.Load(args[0])
	return st, meta, err
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, meta, err := resolveRun(args)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(meta.ID)
	if err != nil {
		return err
	}

	printRun(os.Stdout, meta)
	fmt.Println()
	fmt.Println(slopeGraph(frames))
	return nil
}

func printStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := session.Validate(cfg.Params); err != nil {
		return err
	}

	p := cfg.Params
	d := stats.Compute(p)
	se := d.SE
	if cfg.Parity.RoundSE {
		se = stats.Displayed(se)
	}
	b := stats.NewBounds(stats.OriginalSlope, se)
	cov := stats.NominalCoverage(p.N)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "n\t%d\n", p.N)
	fmt.Fprintf(w, "var(x)\t%g\n", p.VarX)
	fmt.Fprintf(w, "var(e)\t%g\n", p.VarErr)
	fmt.Fprintf(w, "v\t%.4f\n", d.V)
	fmt.Fprintf(w, "se\t%.4f (%s)\n", d.SE, stats.Readout(d.SE))
	fmt.Fprintf(w, "bounds\t[%.4f, %.4f]\n", b.Lower, b.Upper)
	fmt.Fprintf(w, "baseline\t(%.4f, %.4f) - (%.4f, %.4f)\n", 3-d.V, 3-d.V, 3+d.V, 3+d.V)
	fmt.Fprintf(w, "coverage\t%.2f%% normal, %.2f%% t(%.0f)\n", cov.Normal*100, cov.StudentT*100, cov.DF)
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tN\tVAR_X\tVAR_E\tSE")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%s\n", name, p.N, p.VarX, p.VarErr, stats.Readout(stats.Compute(p).SE))
	}
	return w.Flush()
}

// createOut opens path for writing, or stdout when path is empty.
func createOut(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
