package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sengkue/video-generator/pkg/util"
)

// Status of one batch entry
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result reports the outcome for one audio file of a batch
type Result struct {
	AudioFile string
	Status    Status
	Output    string
	Err       error
	Elapsed   time.Duration
}

// BatchRequest renders every audio file in AudioFolder over the same images
type BatchRequest struct {
	AudioFolder   string
	Images        ImageSource
	Preset        string
	Width         int
	Height        int
	ImageDuration time.Duration
	Crossfade     time.Duration
}

// Batch renders one video per audio file, in file name order. A failing
// file is recorded in its Result and never stops the others; only an
// unreadable audio folder is returned as an error.
func (o *Orchestrator) Batch(ctx context.Context, req BatchRequest) ([]Result, error) {
	files, err := util.ListFiles(req.AudioFolder, util.AudioExtensions)
	if err != nil {
		return nil, fmt.Errorf("read audio folder: %w", err)
	}
	if len(files) == 0 {
		o.logger.Warn().Str("folder", req.AudioFolder).Msg("no audio files found")
		return nil, nil
	}

	o.logger.Info().
		Int("files", len(files)).
		Int("workers", o.opts.Workers).
		Str("preset", req.Preset).
		Msg("starting batch")

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for i, file := range files {
		g.Go(func() error {
			results[i] = o.batchOne(gctx, req, file)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, r := range results {
		if r.Status == StatusFailed {
			failed++
		}
	}
	o.logger.Info().
		Int("succeeded", len(results)-failed).
		Int("failed", failed).
		Msg("batch complete")

	return results, nil
}

func (o *Orchestrator) batchOne(ctx context.Context, req BatchRequest, file string) Result {
	start := time.Now()
	res := Result{AudioFile: filepath.Base(file)}

	out, err := o.Render(ctx, Request{
		AudioPath:     file,
		Images:        req.Images,
		Preset:        req.Preset,
		Width:         req.Width,
		Height:        req.Height,
		ImageDuration: req.ImageDuration,
		Crossfade:     req.Crossfade,
	})
	res.Elapsed = time.Since(start)

	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		o.logger.Error().Err(err).Str("audio", file).Msg("batch item failed")
		return res
	}
	res.Status = StatusSuccess
	res.Output = out
	return res
}
