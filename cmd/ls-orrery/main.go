// Command ls-orrery renders an animated orbital tech-stack visualization in
// the terminal, in a window, or headless to images.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/surface"
	"github.com/litescript/ls-orrery/internal/ui"
	"github.com/litescript/ls-orrery/internal/version"
	"github.com/litescript/ls-orrery/internal/viewport"
	"github.com/litescript/ls-orrery/internal/window"
)

// CLI flags for headless and window modes
var (
	configPath   string
	logFile      string
	windowMode   bool
	snapshotPath string
	snapshotAt   float64
	frameCount   int
	frameDir     string
	streamMode   bool
	summaryMode  bool
	exportPath   string
	width        int
	height       int
	pixelRatio   float64
	noAutoRotate bool
	metricsOut   string
	iconDir      string
	showVersion  bool
)

const (
	defaultFPS = 30
	minFPS     = 1
	maxFPS     = 120
)

func main() {
	fps := flag.Int("fps", defaultFPS, "Frame rate (1-120)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&configPath, "config", "", "Orbit configuration JSON file (default: built-in tech stack)")
	flag.StringVar(&logFile, "log-file", "", "Write logs to file (the terminal UI discards logs otherwise)")
	flag.BoolVar(&windowMode, "window", false, "Open a desktop window instead of the terminal UI")
	flag.StringVar(&snapshotPath, "snapshot", "", "Render one frame to a PNG file and exit")
	flag.Float64Var(&snapshotAt, "at", 0, "Elapsed seconds for -snapshot and the first -frames frame")
	flag.IntVar(&frameCount, "frames", 0, "Render n frames as PNG files into -out")
	flag.StringVar(&frameDir, "out", "frames", "Output directory for -frames")
	flag.BoolVar(&streamMode, "stream", false, "Stream frames to the terminal without the interactive UI")
	flag.BoolVar(&summaryMode, "summary", false, "Print the orbit summary table and exit")
	flag.StringVar(&exportPath, "export", "", "Export scene state at -at as JSON (use - for stdout)")
	flag.IntVar(&width, "width", viewport.ReferenceRegion.Width, "Headless and window width in pixels")
	flag.IntVar(&height, "height", viewport.ReferenceRegion.Height, "Headless and window height in pixels")
	flag.Float64Var(&pixelRatio, "dpr", 1, "Device pixel ratio (clamped to 1-1.5)")
	flag.BoolVar(&noAutoRotate, "no-auto-rotate", false, "Disable idle camera rotation")
	flag.StringVar(&metricsOut, "metrics-out", "", "Write metrics in Prometheus text format on exit")
	flag.StringVar(&iconDir, "icons", "", "Directory for relative icon paths")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("ls-orrery v%s\n", version.Version)
		return
	}

	// Validate frame rate
	if *fps < minFPS {
		*fps = minFPS
	} else if *fps > maxFPS {
		*fps = maxFPS
	}

	if err := run(*fps, logging.ParseLevel(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(fps int, level logging.Level) error {
	headless := summaryMode || exportPath != "" || snapshotPath != "" || frameCount > 0 || streamMode
	interactiveTUI := !headless && !windowMode

	// Set up logging
	logger, err := newLogger(level, interactiveTUI)
	if err != nil {
		return err
	}
	defer logger.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector := metrics.New()
	if metricsOut != "" {
		defer func() {
			if err := collector.WriteFile(metricsOut); err != nil {
				logger.Error("write metrics: %v", err)
			}
		}()
	}

	if summaryMode || exportPath != "" {
		if err := runReport(cfg); err != nil {
			return err
		}
		if snapshotPath == "" && frameCount == 0 && !streamMode {
			return nil
		}
	}

	opts := viewport.DefaultOptions()
	opts.Region = surface.Region{Width: width, Height: height}
	opts.PixelRatio = pixelRatio
	opts.Camera.AutoRotate = !noAutoRotate
	opts.IconDir = iconDir
	opts.Logger = logger
	opts.Metrics = collector

	switch {
	case headless:
		return runHeadless(ctx, cfg, opts, fps, logger)
	case windowMode:
		host, err := viewport.Mount(ctx, cfg, opts)
		if err != nil {
			return err
		}
		defer host.Close()
		return window.Run(ctx, host, window.Options{
			Title:  "ls-orrery",
			Width:  width,
			Height: height,
			FPS:    fps,
			Logger: logger,
		})
	default:
		return runTUI(ctx, cfg, opts, fps)
	}
}

func newLogger(level logging.Level, interactiveTUI bool) (*logging.Logger, error) {
	if logFile != "" {
		return logging.NewFile(logFile, level)
	}
	if interactiveTUI {
		// The alternate screen owns stderr.
		return logging.Discard(), nil
	}
	return logging.New(level), nil
}

func loadConfig() (*orbit.Config, error) {
	if configPath == "" {
		return orbit.DefaultConfig(), nil
	}
	cfg, err := orbit.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", configPath, err)
	}
	return cfg, nil
}

func runTUI(ctx context.Context, cfg *orbit.Config, opts viewport.Options, fps int) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal; use -snapshot, -frames, -summary or -window")
	}

	// The first WindowSizeMsg resizes the surface to the terminal.
	opts.Region = surface.Region{Width: 80, Height: 40}
	host, err := viewport.Mount(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer host.Close()

	uiOpts := ui.DefaultOptions()
	uiOpts.FPS = fps

	// Create Bubble Tea program
	p := tea.NewProgram(ui.New(host, uiOpts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
