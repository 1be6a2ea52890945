package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/surface"
	"github.com/litescript/ls-orrery/internal/ui"
	"github.com/litescript/ls-orrery/internal/viewport"
)

// runReport prints the summary table and JSON export without rendering.
func runReport(cfg *orbit.Config) error {
	sc, err := scene.Compose(cfg, scene.Options{NoStars: true})
	if err != nil {
		return err
	}

	if summaryMode {
		scene.WriteSummaryTable(os.Stdout, sc)
	}

	if exportPath != "" {
		export := scene.ExportSnapshot(sc, snapshotAt)
		if exportPath == "-" {
			if err := export.WriteJSON(os.Stdout); err != nil {
				return fmt.Errorf("write JSON to stdout: %w", err)
			}
			return nil
		}
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		if err := export.WriteJSON(f); err != nil {
			return fmt.Errorf("write JSON to file: %w", err)
		}
	}
	return nil
}

// runHeadless handles snapshot, frame sequence and stream modes.
func runHeadless(ctx context.Context, cfg *orbit.Config, opts viewport.Options, fps int, logger *logging.Logger) error {
	if streamMode {
		return runStream(ctx, cfg, opts, fps, logger)
	}

	host, err := viewport.Mount(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer host.Close()

	// Stills include icons; wait for them before the first frame.
	res := host.WaitIcons()
	logger.Debug("icons: %d loaded, %d failed", res.Loaded, res.Failed)

	if snapshotPath != "" {
		if err := host.Frame(snapshotAt); err != nil {
			return err
		}
		if err := writePNG(snapshotPath, host.Surface()); err != nil {
			return err
		}
		logger.Info("wrote %s", snapshotPath)
	}

	if frameCount > 0 {
		if err := os.MkdirAll(frameDir, 0o755); err != nil {
			return fmt.Errorf("create frame directory: %w", err)
		}
		for i := 0; i < frameCount; i++ {
			if ctx.Err() != nil {
				return nil
			}
			t := snapshotAt + float64(i)/float64(fps)
			if err := host.Frame(t); err != nil {
				return err
			}
			path := filepath.Join(frameDir, fmt.Sprintf("frame_%05d.png", i))
			if err := writePNG(path, host.Surface()); err != nil {
				return err
			}
		}
		logger.Info("wrote %d frames to %s", frameCount, frameDir)
	}
	return nil
}

// runStream renders frames as half-block text straight to the terminal.
func runStream(ctx context.Context, cfg *orbit.Config, opts viewport.Options, fps int, logger *logging.Logger) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("-stream needs a terminal on stdout")
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}
	rows = max(2, rows-1)
	opts.Region = surface.Region{Width: cols, Height: rows * 2}
	opts.PixelRatio = 1

	host, err := viewport.Mount(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer host.Close()

	fmt.Print("\x1b[?25l\x1b[2J")       // Hide cursor, clear screen
	defer fmt.Print("\x1b[0m\x1b[?25h\n") // Reset colors, show cursor

	err = host.Run(ctx, fps, func(s *surface.Surface, elapsed float64) error {
		_, err := fmt.Print("\x1b[H" + ui.RenderImage(s.Image()))
		return err
	})
	logger.Debug("stream stopped after %d frames", host.Frames())
	return err
}

func writePNG(path string, s *surface.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, s.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
