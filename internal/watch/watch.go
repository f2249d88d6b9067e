package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Sengkue/video-generator/internal/render"
	"github.com/Sengkue/video-generator/pkg/util"
)

// DefaultDebounce is how long a file must stay quiet before it is rendered
const DefaultDebounce = 2 * time.Second

// Renderer produces one video. *render.Orchestrator implements it.
type Renderer interface {
	Render(ctx context.Context, req render.Request) (string, error)
}

// Config describes what to watch and how to render what shows up
type Config struct {
	AudioFolder   string
	Images        render.ImageSource
	Preset        string
	Width         int
	Height        int
	ImageDuration time.Duration
	Crossfade     time.Duration
	Debounce      time.Duration
	// Existing also renders audio files already in the folder at start
	Existing bool
}

// Watcher renders every audio file that is created or rewritten in a folder
type Watcher struct {
	logger   zerolog.Logger
	renderer Renderer
	cfg      Config

	watcher *fsnotify.Watcher
	queue   chan string
	results chan render.Result
	wg      sync.WaitGroup
}

// New creates a watcher; nothing is observed until Start
func New(logger zerolog.Logger, renderer Renderer, cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		logger:   logger.With().Str("component", "watch").Logger(),
		renderer: renderer,
		cfg:      cfg,
		queue:    make(chan string, 64),
		results:  make(chan render.Result, 16),
	}
}

// Results delivers one Result per rendered file. It is closed once the
// watcher has stopped.
func (w *Watcher) Results() <-chan render.Result {
	return w.results
}

// Start begins watching. The watcher stops when ctx is cancelled; pending
// renders are abandoned.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.cfg.AudioFolder); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", w.cfg.AudioFolder, err)
	}
	w.watcher = watcher

	var existing []string
	if w.cfg.Existing {
		existing, err = util.ListFiles(w.cfg.AudioFolder, util.AudioExtensions)
		if err != nil {
			_ = watcher.Close()
			return fmt.Errorf("read audio folder: %w", err)
		}
	}

	w.logger.Info().
		Str("folder", w.cfg.AudioFolder).
		Str("preset", w.cfg.Preset).
		Dur("debounce", w.cfg.Debounce).
		Msg("watching for audio files")

	w.wg.Add(2)
	go w.watchEvents(ctx, existing)
	go w.processQueue(ctx)

	go func() {
		w.wg.Wait()
		close(w.results)
	}()
	return nil
}

// watchEvents collects file events and hands a path to the queue once it
// has been quiet for the debounce interval
func (w *Watcher) watchEvents(ctx context.Context, existing []string) {
	defer w.wg.Done()
	defer close(w.queue)
	defer w.watcher.Close()

	for _, path := range existing {
		if !w.enqueue(ctx, path) {
			return
		}
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.cfg.Debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !util.IsAudio(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")

		case now := <-ticker.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= w.cfg.Debounce {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				if !w.enqueue(ctx, path) {
					return
				}
			}

		case <-ctx.Done():
			w.logger.Info().Msg("watcher stopped")
			return
		}
	}
}

func (w *Watcher) enqueue(ctx context.Context, path string) bool {
	select {
	case w.queue <- path:
		w.logger.Debug().Str("audio", path).Msg("queued")
		return true
	case <-ctx.Done():
		return false
	}
}

// processQueue renders queued files one at a time
func (w *Watcher) processQueue(ctx context.Context) {
	defer w.wg.Done()

	for path := range w.queue {
		if ctx.Err() != nil {
			continue
		}

		start := time.Now()
		res := render.Result{AudioFile: filepath.Base(path)}
		out, err := w.renderer.Render(ctx, render.Request{
			AudioPath:     path,
			Images:        w.cfg.Images,
			Preset:        w.cfg.Preset,
			Width:         w.cfg.Width,
			Height:        w.cfg.Height,
			ImageDuration: w.cfg.ImageDuration,
			Crossfade:     w.cfg.Crossfade,
		})
		res.Elapsed = time.Since(start)

		if err != nil {
			res.Status = render.StatusFailed
			res.Err = err
			w.logger.Error().Err(err).Str("audio", path).Msg("render failed")
		} else {
			res.Status = render.StatusSuccess
			res.Output = out
		}

		select {
		case w.results <- res:
		case <-ctx.Done():
		}
	}
}
