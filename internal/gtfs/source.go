package gtfs

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource opens a GTFS dataset stored as a directory of tables or as a
// zip archive. Archives that keep their tables inside a single top-level
// folder are re-rooted at that folder. The returned closer must be closed
// once parsing is done.
func OpenSource(p string) (fs.FS, io.Closer, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed: %w", err)
	}
	if info.IsDir() {
		return os.DirFS(p), nopCloser{}, nil
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, nil, fmt.Errorf("open zip: %w", err)
	}
	fsys, err := archiveRoot(zr)
	if err != nil {
		zr.Close()
		return nil, nil, err
	}
	return fsys, zr, nil
}

func archiveRoot(fsys fs.FS) (fs.FS, error) {
	if _, err := fs.Stat(fsys, "agency.txt"); err == nil {
		return fsys, nil
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "__MACOSX" {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 1 {
		if _, err := fs.Stat(fsys, path.Join(dirs[0], "agency.txt")); err == nil {
			return fs.Sub(fsys, dirs[0])
		}
	}
	return fsys, nil
}
