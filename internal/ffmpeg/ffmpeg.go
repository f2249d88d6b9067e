package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// Options locates the ffmpeg binaries. Empty paths are looked up in PATH.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Threads     int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	ffmpegPath, err := lookup(opts.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobePath, err := lookup(opts.FFprobePath, "ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
	}, nil
}

func lookup(configured, fallback string) (string, error) {
	if configured == "" {
		configured = fallback
	}
	return exec.LookPath(configured)
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	args := e.baseArgs()
	args = append(args, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := newTailBuffer(20)
	logHandler := func(line string) {
		tail.add(line)
		if opts.LogHandler != nil {
			opts.LogHandler(line)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// stderr carries both the log and the -progress blocks
	go func() {
		defer wg.Done()
		streamOutput(stderr, opts.Duration, opts.ProgressHandler, logHandler)
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			logHandler(scanner.Text())
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Tail: tail.lines(), err: err}
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

func (e *Executor) baseArgs() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "info"}
	if e.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.threads))
	}
	return append(args, "-progress", "pipe:2")
}

// ExitError is returned when ffmpeg exits non-zero. Tail holds its last
// output lines.
type ExitError struct {
	Code int
	Tail []string
	err  error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.Code)
	if len(e.Tail) > 0 {
		msg += ": " + e.Tail[len(e.Tail)-1]
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.err }

// streamOutput parses ffmpeg output and calls handlers
func streamOutput(r io.Reader, total time.Duration, progressHandler ProgressFunc, logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progress := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			if logHandler != nil {
				logHandler(line)
			}
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			progress.Frame, _ = strconv.Atoi(value)
		case "fps":
			progress.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			progress.Bitrate = value
		case "out_time_us", "out_time_ms":
			// both are reported in microseconds
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				progress.OutTime = time.Duration(us) * time.Microsecond
			}
		case "out_time":
			progress.Time = value
		case "speed":
			progress.Speed = value
		case "progress":
			// end of a progress block
			if total > 0 {
				progress.Percentage = min(100, float64(progress.OutTime)/float64(total)*100)
			}
			if value == "end" && total > 0 {
				progress.Percentage = 100
			}
			if progressHandler != nil && (progress.Frame > 0 || progress.OutTime > 0) {
				progressHandler(progress)
			}
			progress = &Progress{}
		default:
			if logHandler != nil {
				logHandler(line)
			}
		}
	}
}

type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []string
}

func newTailBuffer(size int) *tailBuffer {
	return &tailBuffer{max: size}
}

func (t *tailBuffer) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *tailBuffer) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
