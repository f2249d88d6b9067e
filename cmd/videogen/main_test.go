package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Sengkue/video-generator/internal/config"
	"github.com/Sengkue/video-generator/internal/presets"
	"github.com/Sengkue/video-generator/internal/render"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPresetsAddRemove(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "presets.json")
	require.NoError(t, config.Default().Save(path))

	_, err := execute(t, "--config", path, "-q", "presets", "add", "Square", "--width", "500", "--height", "500")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	p, err := cfg.Presets.Lookup("square")
	require.NoError(t, err)
	assert.Equal(t, 500, p.Width)
	assert.Equal(t, presets.DefaultFPS, p.FPS)
	assert.Equal(t, "500:500", p.AspectRatio)

	out, err := execute(t, "--config", path, "-q", "presets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "square")
	assert.Contains(t, out, "1080x1920")

	_, err = execute(t, "--config", path, "-q", "presets", "remove", "square")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	_, err = cfg.Presets.Lookup("square")
	assert.ErrorIs(t, err, presets.ErrUnknownPreset)

	_, err = execute(t, "--config", path, "-q", "presets", "remove", "square")
	assert.ErrorIs(t, err, presets.ErrUnknownPreset)
}

func TestEditsDoNotPersistEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "presets.json")
	require.NoError(t, config.Default().Save(path))
	t.Setenv(config.EnvOutputDir, "/tmp/ephemeral-out")
	t.Setenv(config.EnvWorkers, "7")

	_, err := execute(t, "--config", path, "-q", "presets", "add", "wide", "--width", "2560", "--height", "1080")
	require.NoError(t, err)
	_, err = execute(t, "--config", path, "-q", "title", "set", "--fontsize", "64")
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 64, cfg.TitleStyle.FontSize)
	_, err = cfg.Presets.Lookup("wide")
	assert.NoError(t, err)
}

func TestTitleSet(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Default().Save(path))

	out, err := execute(t, "--config", path, "-q", "title", "set", "--color", "#ffcc00", "--source", "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "#ffcc00")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "#ffcc00", cfg.TitleStyle.Color)
	assert.Equal(t, config.TitleFromTags, cfg.TitleStyle.Source)
	assert.Equal(t, 70, cfg.TitleStyle.FontSize)

	_, err = execute(t, "--config", path, "-q", "title", "set", "--source", "lyrics")
	assert.Error(t, err)
}

func TestRenderCreatesMissingDataFolder(t *testing.T) {
	t.Chdir(t.TempDir())
	data := filepath.Join(t.TempDir(), "data")

	_, err := execute(t, "--config", "", "-q", "render", "-a", "", "-i", "", "--data", data)
	assert.ErrorIs(t, err, render.ErrNoImagesFound)
	assert.DirExists(t, data)
}

func TestDefaultPreset(t *testing.T) {
	assert.Equal(t, "youtube", renderCmd.Flags().Lookup("preset").DefValue)
	assert.Nil(t, renderCmd.Flags().Lookup("audio").Annotations[cobra.BashCompOneRequiredFlag])
	assert.Nil(t, renderCmd.Flags().Lookup("images").Annotations[cobra.BashCompOneRequiredFlag])
	assert.NotNil(t, batchCmd.Flags().Lookup("images").Annotations[cobra.BashCompOneRequiredFlag])
}

func TestListPresetsFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "--config", "", "-q", "--list-presets")
	require.NoError(t, err)
	for _, name := range presets.Default().Names() {
		assert.Contains(t, out, name)
	}
}

func TestPrintBatchSummary(t *testing.T) {
	var buf bytes.Buffer
	failed := printBatchSummary(&buf, []render.Result{
		{AudioFile: "a.mp3", Status: render.StatusSuccess, Output: "output/a_tiktok.mp4", Elapsed: time.Second},
		{AudioFile: "b.mp3", Status: render.StatusFailed, Err: errors.New("audio load failed")},
	})
	assert.Equal(t, 1, failed)
	assert.Contains(t, buf.String(), "a.mp3 -> output/a_tiktok.mp4")
	assert.Contains(t, buf.String(), "b.mp3: audio load failed")
	assert.Contains(t, buf.String(), "1 succeeded, 1 failed")

	buf.Reset()
	assert.Zero(t, printBatchSummary(&buf, nil))
	assert.Contains(t, buf.String(), "No audio files found")
}
