// internal/app/system/workers/formsweeper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops idle entries and returns how many it removed.
type Sweeper interface {
	Sweep() int
}

// FormSweeper periodically closes idle form sessions.
type FormSweeper struct {
	name     string
	target   Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFormSweeper creates a sweeper for target. name labels its log lines.
func NewFormSweeper(name string, target Sweeper, logger *zap.Logger, interval time.Duration) *FormSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &FormSweeper{
		name:     name,
		target:   target,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (w *FormSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("form sweeper started",
		zap.String("registry", w.name),
		zap.Duration("interval", w.interval))
}

// Stop ends the loop and waits for it. It is safe to call more than once.
func (w *FormSweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("form sweeper stopped", zap.String("registry", w.name))
	})
}

func (w *FormSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if n := w.target.Sweep(); n > 0 {
				w.log.Info("closed idle form sessions",
					zap.String("registry", w.name),
					zap.Int("count", n))
			}
		}
	}
}
