package camera

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// imageExts lists the file types DirSource replays.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// DirSource replays an image sequence from a directory in file name order.
type DirSource struct {
	dir  string
	loop bool

	mu     sync.Mutex
	files  []string
	pos    int
	closed bool
}

// OpenDir lists the images in dir. It fails when the directory has none.
func OpenDir(dir string, loop bool) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	sort.Strings(files)

	return &DirSource{dir: dir, loop: loop, files: files}, nil
}

// Len returns the number of frames in the sequence.
func (s *DirSource) Len() int {
	return len(s.files)
}

// Next decodes the next image. EXIF orientation is applied.
func (s *DirSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.pos >= len(s.files) {
		if !s.loop {
			s.mu.Unlock()
			return nil, ErrEndOfStream
		}
		s.pos = 0
	}
	path := s.files[s.pos]
	s.pos++
	s.mu.Unlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Close stops the replay.
func (s *DirSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
