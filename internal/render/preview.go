package render

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/Sengkue/video-generator/internal/timeline"
	"github.com/Sengkue/video-generator/pkg/util"
)

// Preview writes the picture the finished video would show at time at,
// including crossfade blending and the title, as an image file. Nothing is
// encoded.
func (o *Orchestrator) Preview(ctx context.Context, req Request, at time.Duration, output string) (*Job, error) {
	job, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if total := timeline.Total(job.Segments); at > total {
		at = total
	}
	base := timeline.FrameAt(job.Segments, at)
	still := imaging.Overlay(base, job.Overlay.Image, image.Pt(0, 0), 1.0)

	if dir := filepath.Dir(output); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	if err := imaging.Save(still, output); err != nil {
		return nil, fmt.Errorf("save preview: %w", err)
	}

	o.logger.Info().
		Str("job", job.ID).
		Dur("at", at).
		Str("output", output).
		Msg("preview written")

	return job, nil
}
