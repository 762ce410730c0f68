package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/san-kum/dynrev/internal/config"
	"github.com/san-kum/dynrev/internal/methods"
	"github.com/san-kum/dynrev/internal/metrics"
	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/progress"
	"github.com/san-kum/dynrev/internal/quantum"
	"github.com/san-kum/dynrev/internal/reverse"
	"github.com/spf13/cobra"
)

var (
	configFile string
	system     string
	profile    string
	points     int
	stencil    int
	propagator string
	silent     bool
	logLevel   string

	mu         float64
	pe         float64
	staticTol  float64
	maxIter    int
	dt         float64
	steps      int
	field      float64
	dynamicTol float64
	maxEvals   int
	restricted bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dynrev",
		Short:        "reverse engineer fictitious potentials from densities",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&system, "preset", config.DefaultSystem, "system preset")
	pf.StringVar(&profile, "profile", "", "run profile for the system preset")
	pf.IntVar(&points, "points", config.DefaultPoints, "grid points")
	pf.IntVar(&stencil, "stencil", config.DefaultStencil, "kinetic stencil width")
	pf.StringVar(&propagator, "propagator", config.DefaultPropagator, "time propagator (exact, rk4)")
	pf.BoolVar(&silent, "silent", false, "suppress the progress line")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	staticCmd := &cobra.Command{
		Use:   "static",
		Short: "invert a static reference density",
		Args:  cobra.NoArgs,
		RunE:  runStatic,
	}
	addStaticFlags(staticCmd)

	dynamicCmd := &cobra.Command{
		Use:   "dynamic",
		Short: "invert a density trajectory driven by a linear field",
		Args:  cobra.NoArgs,
		RunE:  runDynamic,
	}
	addStaticFlags(dynamicCmd)
	dynamicCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	dynamicCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of time steps")
	dynamicCmd.Flags().Float64Var(&field, "field", config.DefaultField, "field strength E of the kick E·x")
	dynamicCmd.Flags().Float64Var(&dynamicTol, "step-tol", config.DefaultDynamicTolerance, "per-step root tolerance")
	dynamicCmd.Flags().IntVar(&maxEvals, "max-evals", 0, "per-step evaluation budget (0: 100·(points+1))")
	dynamicCmd.Flags().BoolVar(&restricted, "restricted", false, "propagate one set of orbitals for both spins")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list system presets and run profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYSTEM\tPROFILES")
			for _, name := range quantum.Presets() {
				fmt.Fprintf(w, "%s\t%v\n", name, config.ListPresets(name))
			}
			w.Flush()
		},
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list methods",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range methods.NewRegistry().Names() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(staticCmd, dynamicCmd, presetsCmd, methodsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStaticFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&mu, "mu", config.DefaultMu, "static step size")
	cmd.Flags().Float64Var(&pe, "pe", config.DefaultPe, "density exponent")
	cmd.Flags().Float64Var(&staticTol, "tol", config.DefaultStaticTolerance, "static convergence tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "static iteration cap")
}

// loadConfig layers defaults, the run profile, the config file and finally
// the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	flags := cmd.Flags()

	if profile != "" {
		p := config.GetPreset(system, profile)
		if p == nil {
			return nil, fmt.Errorf("unknown profile: %s (available: %v)", profile, config.ListPresets(system))
		}
		cfg = p
	}
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if flags.Changed("preset") || (profile == "" && configFile == "") {
		cfg.System.Preset = system
	}
	if flags.Changed("points") {
		cfg.System.Points = points
	}
	if flags.Changed("stencil") {
		cfg.System.Stencil = stencil
	}
	if flags.Changed("propagator") {
		cfg.Propagator = propagator
	}
	if flags.Changed("silent") {
		cfg.Silent = silent
	}
	if flags.Changed("mu") {
		cfg.Static.Mu = mu
	}
	if flags.Changed("pe") {
		cfg.Static.Pe = pe
	}
	if flags.Changed("tol") {
		cfg.Static.Tolerance = staticTol
	}
	if flags.Changed("max-iter") {
		cfg.Static.MaxIterations = maxIter
	}
	if flags.Changed("dt") {
		cfg.Dynamic.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Dynamic.Steps = steps
	}
	if flags.Changed("field") {
		cfg.Dynamic.Field = field
	}
	if flags.Changed("step-tol") {
		cfg.Dynamic.Tolerance = dynamicTol
	}
	if flags.Changed("max-evals") {
		cfg.Dynamic.MaxEvaluations = maxEvals
	}
	if flags.Changed("restricted") {
		cfg.Dynamic.Restricted = restricted
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, string, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, "", fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).With("run", runID)
	slog.SetDefault(logger)
	return logger, runID, nil
}

// session holds what both commands share.
type session struct {
	cfg        *config.Config
	log        *slog.Logger
	runID      string
	system     *quantum.System
	reference  methods.Method
	fictitious methods.Method
	recorder   *metrics.Recorder
	line       *progress.Line
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, runID, err := newLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	s, err := cfg.BuildSystem()
	if err != nil {
		return nil, err
	}

	registry := methods.NewRegistry()
	ref, err := cfg.Method(registry, cfg.Reference)
	if err != nil {
		return nil, err
	}
	fict, err := cfg.Method(registry, cfg.Fictitious)
	if err != nil {
		return nil, err
	}
	for _, m := range []methods.Method{ref, fict} {
		if h, ok := m.(*methods.Hartree); ok {
			h.Logger = logger
		}
	}

	ss := &session{
		cfg:        cfg,
		log:        logger,
		runID:      runID,
		system:     s,
		reference:  ref,
		fictitious: fict,
		recorder:   metrics.NewDefaultRecorder(),
	}
	if !cfg.Silent {
		ss.line = progress.New(os.Stderr)
	}
	logger.Info("session", "system", cfg.System.Preset, "points", s.Points(),
		"reference", ref.Name(), "fictitious", fict.Name())
	return ss, nil
}

func (ss *session) observer() reverse.Observer {
	if ss.line == nil {
		return ss.recorder
	}
	return reverse.Observers(ss.recorder, ss.line)
}

func (ss *session) done() {
	if ss.line != nil {
		ss.line.Done()
	}
}

func (ss *session) groundState(ctx context.Context) (*quantum.State, []float64, error) {
	state, err := ss.reference.Solve(ctx, ss.system, ss.cfg.SolveOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("reference ground state: %w", err)
	}
	n, _, _ := observables.Density(ss.system, state)
	return state, n, nil
}

func (ss *session) invertStatic(ctx context.Context, target []float64) (*reverse.StaticResult, error) {
	settings := ss.cfg.StaticSettings()
	settings.SolveOptions = []methods.SolveOption{methods.WithRestricted(ss.cfg.SCF.Restricted)}
	settings.Observer = ss.observer()
	settings.Logger = ss.log
	defer ss.done()
	return reverse.Static(ctx, ss.fictitious, ss.system, target, settings)
}

func runStatic(cmd *cobra.Command, args []string) error {
	ss, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ref, target, err := ss.groundState(ctx)
	if err != nil {
		return err
	}
	res, err := ss.invertStatic(ctx, target)
	if res == nil {
		return err
	}
	printStatic(os.Stdout, ss, res)

	energies := []struct {
		label  string
		method methods.Method
		system *quantum.System
		state  *quantum.State
	}{
		{"reference", ss.reference, ss.system, ref},
		{"fictitious", ss.fictitious, res.System, nil},
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTATE\tMETHOD\tTOTAL ENERGY")
	for _, e := range energies {
		state := e.state
		if state == nil {
			var serr error
			if state, serr = e.method.Solve(ctx, e.system, methods.WithRestricted(ss.cfg.SCF.Restricted)); serr != nil {
				return fmt.Errorf("%s state: %w", e.label, serr)
			}
		}
		energy, eerr := methods.TotalEnergy(e.method, e.system, state)
		if eerr != nil {
			ss.log.Warn("total energy unavailable", "state", e.label, "err", eerr)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.10f\n", e.label, e.method.Name(), energy)
	}
	w.Flush()
	return err
}

func runDynamic(cmd *cobra.Command, args []string) error {
	ss, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cfg := ss.cfg

	ground, n0, err := ss.groundState(ctx)
	if err != nil {
		return err
	}
	t := cfg.TimeGrid()
	ref, err := methods.Propagate(ctx, ss.reference, ss.system, ground, cfg.Kick(ss.system, t), t, cfg.Dynamic.Restricted)
	if err != nil {
		return fmt.Errorf("reference evolution: %w", err)
	}
	target := make([][]float64, len(t))
	for j, f := range ref.Frames {
		target[j], _, _ = observables.FrameDensity(f)
	}

	static, err := ss.invertStatic(ctx, n0)
	switch {
	case errors.Is(err, reverse.ErrNotConverged):
		ss.log.Warn("continuing from an unconverged static potential", "convergence", static.Convergence)
	case err != nil:
		return err
	}
	fs := static.System

	initial, err := ss.fictitious.Solve(ctx, fs, methods.WithRestricted(cfg.SCF.Restricted))
	if err != nil {
		return fmt.Errorf("fictitious ground state: %w", err)
	}
	baseline := make([][]float64, len(t))
	for j := range baseline {
		baseline[j] = make([]float64, fs.Points())
	}

	settings := cfg.DynamicSettings()
	settings.Observer = ss.observer()
	settings.Logger = ss.log
	res, err := reverse.Dynamic(ctx, ss.fictitious, fs, initial, target, baseline, t, settings)
	ss.done()
	if res != nil {
		printDynamic(os.Stdout, ss, res)
	}
	return err
}

func printStatic(out io.Writer, ss *session, res *reverse.StaticResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", ss.runID)
	fmt.Fprintf(w, "system\t%s\n", ss.system)
	fmt.Fprintf(w, "outcome\t%s\n", res.Outcome)
	fmt.Fprintf(w, "iterations\t%d\n", res.Iterations)
	fmt.Fprintf(w, "convergence\t%.3e\n", res.Convergence)
	w.Flush()
	printMetrics(out, ss.recorder)
}

func printDynamic(out io.Writer, ss *session, res *reverse.DynamicResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", ss.runID)
	fmt.Fprintln(w, "STEP\tTIME\tSTATUS\tEVALS\tRESIDUAL\tERROR")
	fmt.Fprintf(w, "0\t%.4f\tinitial\t0\t-\t%.3e\n", res.Evolution.T[0], res.Error[0])
	for _, s := range res.Steps {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%d\t%.3e\t%.3e\n", s.Index, s.Time, s.Status, s.Evaluations, s.Residual, s.Error)
	}
	w.Flush()
	printMetrics(out, ss.recorder)
}

func printMetrics(out io.Writer, r *metrics.Recorder) {
	values := r.Values()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range r.Names() {
		fmt.Fprintf(w, "%s\t%.6g\n", name, values[name])
	}
	w.Flush()
}
