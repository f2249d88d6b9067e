package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/Sengkue/video-generator/pkg/util"
)

// DefaultDataDir is scanned for inputs when render is given neither audio nor
// images
const DefaultDataDir = "data"

// DataFolder finds the inputs of a single render in dir: its images in name
// order and its first audio file, preferring extensions in
// util.AudioExtensions order. A missing dir is created so the user knows where
// to put files.
func DataFolder(dir string) (string, ImageSource, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := util.EnsureDir(dir); err != nil {
			return "", ImageSource{}, err
		}
		return "", ImageSource{}, fmt.Errorf("%w: %q folder not found, it has been created: add your files and run again",
			ErrNoImagesFound, dir)
	}

	images := Directory(dir)
	if _, err := images.Resolve(); err != nil {
		return "", ImageSource{}, err
	}

	for _, ext := range util.AudioExtensions {
		files, err := util.ListFiles(dir, []string{ext})
		if err != nil {
			return "", ImageSource{}, fmt.Errorf("%w: %w", ErrAudioLoad, err)
		}
		if len(files) > 0 {
			return files[0], images, nil
		}
	}
	return "", ImageSource{}, fmt.Errorf("%w: no %s files in %s", ErrAudioLoad,
		strings.Join(util.AudioExtensions, "/"), dir)
}

// ImageSource is either a directory scanned for images or an explicit,
// ordered list of image files
type ImageSource struct {
	dir   string
	paths []string
}

// Directory selects every supported image directly inside dir, in name order
func Directory(dir string) ImageSource {
	return ImageSource{dir: dir}
}

// ExplicitList selects the given files in the given order
func ExplicitList(paths ...string) ImageSource {
	return ImageSource{paths: append([]string(nil), paths...)}
}

// ParseImageSource interprets a command-line images argument: a
// comma-separated list, a single image file, or a directory
func ParseImageSource(arg string) ImageSource {
	arg = strings.TrimSpace(arg)
	if strings.Contains(arg, ",") {
		var paths []string
		for _, p := range strings.Split(arg, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		return ExplicitList(paths...)
	}
	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		return ExplicitList(arg)
	}
	return Directory(arg)
}

// IsDirectory reports whether the source scans a folder
func (s ImageSource) IsDirectory() bool {
	return s.dir != ""
}

func (s ImageSource) String() string {
	if s.IsDirectory() {
		return s.dir
	}
	return strings.Join(s.paths, ",")
}

// Resolve returns the image paths, failing with ErrNoImagesFound when there
// are none
func (s ImageSource) Resolve() ([]string, error) {
	if !s.IsDirectory() {
		if len(s.paths) == 0 {
			return nil, fmt.Errorf("%w: empty image list", ErrNoImagesFound)
		}
		return append([]string(nil), s.paths...), nil
	}

	paths, err := util.ListFiles(s.dir, util.ImageExtensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoImagesFound, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNoImagesFound,
			strings.Join(util.ImageExtensions, "/"), s.dir)
	}
	return paths, nil
}
