package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/clothsim/internal/analysis"
	"github.com/san-kum/clothsim/internal/automation"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/export"
	"github.com/san-kum/clothsim/internal/gui"
	"github.com/san-kum/clothsim/internal/storage"
	"github.com/san-kum/clothsim/internal/stream"
	"github.com/san-kum/clothsim/internal/viz"
)

var (
	env *config.Env

	dataDir    string
	configFile string
	preset     string
	scenario   string
	ticks      int
	dt         float64
	passes     int
	seed       int64
	track      int
	name       string

	addr  string
	theme string

	outFile   string
	svgWidth  int
	svgHeight int
	metric    string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func main() {
	env = config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:   "clothsim",
		Short: "mass-spring cloth you can cut and drag",
		Run: func(cmd *cobra.Command, args []string) {
			gui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&scenario, "scenario", "", "scripted pointer scenario (yaml)")
	runCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().IntVar(&passes, "passes", config.DefaultPasses, "solver passes per tick")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "seed recorded with the run")
	runCmd.Flags().IntVar(&track, "track", -1, "particle whose height is recorded (-1 picks the bottom middle)")
	runCmd.Flags().StringVar(&name, "name", "", "run name")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view (mouse: left cuts, right grabs)",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "3D window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addConfigFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the cloth over websocket (and redis when configured)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", env.Addr, "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the tracked particle",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final cloth (or a metric series) as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	exportSVGCmd.Flags().StringVar(&metric, "metric", "", "plot this metric series instead of the cloth")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with default values",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initConfigCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "rerun a scenario across a parameter range",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&scenario, "scenario", "", "scripted pointer scenario (yaml)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "break_ratio", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1.2, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 3.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, serveCmd, listCmd, plotCmd, analyzeCmd,
		exportJSONCmd, exportSVGCmd, presetsCmd, initConfigCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	label := "curtain"
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		label = preset
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		label = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Lookup("ticks") != nil && flags.Changed("ticks") {
		cfg.Run.Ticks = ticks
	}
	if flags.Lookup("dt") != nil && flags.Changed("dt") {
		cfg.Physics.Dt = dt
	}
	if flags.Lookup("passes") != nil && flags.Changed("passes") {
		cfg.Solver.Passes = passes
	}
	if flags.Lookup("seed") != nil && (flags.Changed("seed") || cfg.Run.Seed == 0) {
		cfg.Run.Seed = seed
	}
	if flags.Lookup("track") != nil && flags.Changed("track") {
		cfg.Run.Track = track
	}
	if cfg.Run.Track < 0 && cfg.Topology.Kind != "mesh" {
		cfg.Run.Track = bottomMiddle(cfg.Topology)
	}
	return cfg, label, cfg.Validate()
}

// bottomMiddle is the index of the middle particle of a grid's last row.
func bottomMiddle(t config.TopologyConfig) int {
	return t.Rows*(t.Columns+1) + t.Columns/2
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func setup(cmd *cobra.Command) (*experiment.Experiment, string, error) {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	exp := experiment.New(cfg, nil)
	if err := exp.Setup(); err != nil {
		return nil, "", err
	}
	return exp, label, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if name == "" {
		name = label
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d ticks)...\n", name, cfg.Run.Ticks)
	start := time.Now()

	var exp *experiment.Experiment
	if scenario != "" {
		sc, err := automation.LoadScenario(scenario)
		if err != nil {
			return err
		}
		exp, err = automation.RunScenario(ctx, sc, cfg, nil)
		if err != nil && exp == nil {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	} else {
		exp = experiment.New(cfg, nil)
		if err := exp.Setup(); err != nil {
			return err
		}
		if _, err := exp.Run(ctx, nil); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	result := exp.Result()
	if result == nil {
		return fmt.Errorf("run produced no result")
	}
	elapsed := time.Since(start)

	used := exp.Config()
	meta := storage.RunMetadata{
		Name:     name,
		Seed:     used.Run.Seed,
		Dt:       used.Physics.Dt,
		Passes:   used.Solver.Passes,
		Gravity:  used.Physics.Gravity,
		Friction: used.Physics.Friction,
		Track:    used.Run.Track,
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.StepsTaken)
	if len(result.Errors) > 0 {
		fmt.Printf("failed ticks: %d\n", len(result.Errors))
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for n := range result.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %s: %.6f\n", n, result.Metrics[n])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if err := viz.SetTheme(theme); err != nil {
		return err
	}

	var m tea.Model
	if preset == "" && configFile == "" {
		m = viz.NewLauncher(nil)
	} else {
		exp, label, err := setup(cmd)
		if err != nil {
			return err
		}
		m = viz.NewModel(exp, label)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}

func runGUI(cmd *cobra.Command, args []string) error {
	if preset == "" && configFile == "" {
		gui.RunInteractive()
		return nil
	}
	exp, label, err := setup(cmd)
	if err != nil {
		return err
	}
	gui.Run(exp, label)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	exp, label, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	hub := stream.NewHub()
	srv := stream.NewServer(exp, hub, int(env.TickRate))

	if env.RedisURL != "" {
		client, err := stream.Connect(ctx, env.RedisURL)
		if err != nil {
			return err
		}
		pub := stream.NewRedisPublisher(client, env.RedisChannel)
		defer pub.Close()
		srv.AddPublisher(pub)
		fmt.Printf("publishing to redis channel %s\n", pub.Channel())
	}

	fmt.Printf("serving %s on %s\n", label, addr)
	return srv.ListenAndServe(ctx, addr)
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTICKS\tDT\tPASSES\tPARTICLES\tBROKEN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\t%.0f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.Passes,
			run.Particles,
			run.Metrics["broken"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Ticks) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(series.Ticks))

	for _, n := range series.Names {
		graph := asciigraph.Plot(series.Columns[n],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(n),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	column := fmt.Sprintf("track_%d", meta.Track)
	data, ok := series.Columns[column]
	if !ok {
		return fmt.Errorf("run %s has no tracked particle", runID)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("particle: %d\n\n", meta.Track)

	spec, err := analysis.ComputeSpectrum(data, meta.Dt)
	if err != nil {
		return err
	}
	plotData := spec.Amplitude
	if len(plotData) > 8 {
		plotData = plotData[:len(plotData)/4]
	}
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("amplitude spectrum ("+column+")"),
	))
	fmt.Println()

	freq, amp, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz (amplitude %.4f)\n", freq, amp)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	lo, hi := analysis.Extent(data)
	fmt.Printf("height range: %.4f .. %.4f\n", lo, hi)

	velocity := make([]float64, 0, len(data))
	for i := 1; i < len(data); i++ {
		velocity = append(velocity, (data[i]-data[i-1])/meta.Dt)
	}
	if idx := analysis.SettleIndex(velocity, 1e-3); idx >= 0 && idx+1 < len(series.Times) {
		fmt.Printf("settled at: %.2f s\n", series.Times[idx+1])
	} else {
		fmt.Println("settled at: never")
	}
	return nil
}

func output() (*os.File, func(), error) {
	if outFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if outFile != "" {
		return storage.ExportJSON(outFile, data)
	}
	return storage.ExportJSONStdout(data)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	if metric != "" {
		series, err := st.LoadSeries(runID)
		if err != nil {
			return err
		}
		values, ok := series.Columns[metric]
		if !ok {
			return fmt.Errorf("run %s has no metric %q (have %v)", runID, metric, series.Names)
		}
		svg = export.SeriesToSVG(series.Times, values, svgWidth, svgHeight, "#00ff00")
	} else {
		final, err := st.LoadFinal(runID)
		if err != nil {
			return err
		}
		svg = export.StateToSVG(final, svgWidth, svgHeight)
	}
	if svg == "" {
		return fmt.Errorf("nothing to draw")
	}

	f, done, err := output()
	if err != nil {
		return err
	}
	defer done()
	_, err = fmt.Fprintln(f, svg)
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGRID\tPLANE\tPIN\tGRAVITY\tPASSES\tBREAK")
	for _, n := range config.ListPresets() {
		p := config.GetPreset(n)
		brk := "none"
		switch {
		case p.Topology.BreakLength > 0:
			brk = fmt.Sprintf("%.2f", p.Topology.BreakLength)
		case p.Topology.BreakRatio > 0:
			brk = fmt.Sprintf("x%.2f", p.Topology.BreakRatio)
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%s\t%s\t%.2f\t%d\t%s\n",
			n, p.Topology.Rows, p.Topology.Columns, p.Topology.Plane, p.Topology.Pin,
			p.Physics.Gravity, p.Solver.Passes, brk)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", preset)
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sc := &automation.Scenario{Name: "idle"}
	if scenario != "" {
		if sc, err = automation.LoadScenario(scenario); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.ParameterSweep{
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(ctx, sweep, sc, cfg, nil)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tBROKEN\tPEAK STRETCH\tFAILURES\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%.4f\t%d\n", r.ParamValue, r.Broken, r.PeakStretch, r.Failures)
	}
	return w.Flush()
}
