package scene

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-orrery/internal/icon"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
)

// IconConcurrency bounds parallel icon loads.
const IconConcurrency = 4

// IconResult summarizes a LoadIcons run.
type IconResult struct {
	Loaded int
	Failed int
}

// LoadIcons loads every body icon from src and attaches each as it arrives.
// A failed icon is logged and counted; the body keeps rendering without it.
// Per-icon errors never escape. LoadIcons blocks until all loads finish or
// ctx is cancelled.
func (s *Scene) LoadIcons(ctx context.Context, src icon.Source, log *logging.Logger, m *metrics.Collector) IconResult {
	if log == nil {
		log = logging.Discard()
	}
	var loaded, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(IconConcurrency)
	for _, b := range s.Bodies {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			img, err := src.Load(gctx, b.IconRef, b.Color)
			if err != nil {
				failed.Add(1)
				m.IconLoaded(false)
				log.Warn("icon for %q: %v", b.Name, err)
				return nil
			}
			b.SetIcon(img)
			loaded.Add(1)
			m.IconLoaded(true)
			return nil
		})
	}
	_ = g.Wait()

	res := IconResult{Loaded: int(loaded.Load()), Failed: int(failed.Load())}
	log.Debug("icons: %d loaded, %d failed", res.Loaded, res.Failed)
	return res
}
