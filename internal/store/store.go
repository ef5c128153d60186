// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store manages the per-dataset temp and output directory trees and
// moves finished artifacts from the temp tree into the published output tree.
package store

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/pkg/types"
)

// Store owns one dataset's output and temp trees for the duration of a run.
type Store struct {
	// OutputDir is <output_root>/<dataset_file_name>.
	OutputDir string
	// TempDir is <temp_root>/<dataset_file_name>.
	TempDir string

	name string
	eng  engine.Engine
	log  zerolog.Logger
}

// New returns a store for the dataset file name. No directories are created
// until Init.
func New(cfg types.ExportConfig, name string, eng engine.Engine, log zerolog.Logger) *Store {
	return &Store{
		OutputDir: filepath.Join(cfg.OutputRoot, name),
		TempDir:   filepath.Join(cfg.TempRoot, name),
		name:      name,
		eng:       eng,
		log:       log,
	}
}

// Cleanup removes any leftover temp workspace from a prior interrupted run.
// The geodatabase container is deleted through the engine first to release
// its lock; an ordinary recursive delete cannot break it.
func (s *Store) Cleanup() error {
	gdb := filepath.Join(s.TempDir, types.FormatGeodatabase.Subfolder(), s.name+".gdb")
	if s.eng.Exists(gdb) {
		s.log.Debug().Str("path", gdb).Msg("deleting leftover file geodatabase")
		if err := s.eng.Delete(gdb); err != nil {
			return fmt.Errorf("deleting geodatabase %s: %w", gdb, err)
		}
	}
	if _, err := os.Stat(s.TempDir); err == nil {
		s.log.Debug().Str("path", s.TempDir).Msg("deleting leftover temp workspace")
		if err := os.RemoveAll(s.TempDir); err != nil {
			return fmt.Errorf("deleting temp workspace %s: %w", s.TempDir, err)
		}
	}
	return nil
}

// Init creates fresh output and temp roots for the dataset.
func (s *Store) Init() error {
	if _, err := s.EnsureFolder(s.OutputDir, false); err != nil {
		return err
	}
	_, err := s.EnsureFolder(s.TempDir, false)
	return err
}

// EnsureFolder creates dir if absent. With clear set, an existing directory
// is removed and recreated so format steps start from an empty folder.
func (s *Store) EnsureFolder(dir string, clear bool) (string, error) {
	if _, err := os.Stat(dir); err == nil && clear {
		s.log.Debug().Str("path", dir).Msg("clearing directory")
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("clearing directory %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return dir, nil
}

// TempFormatFolder returns the temp working folder for a format, creating
// (and optionally clearing) it.
func (s *Store) TempFormatFolder(f types.Format, clear bool) (string, error) {
	return s.EnsureFolder(filepath.Join(s.TempDir, f.Subfolder()), clear)
}

// OutputPath returns the published location of filename for a format.
func (s *Store) OutputPath(f types.Format, filename string) string {
	return filepath.Join(s.OutputDir, f.Subfolder(), filename)
}

// Publish copies a completed file from the temp tree into the output tree,
// creating the destination folder on demand. It returns the published path.
func (s *Store) Publish(tempDir, filename string, f types.Format) (string, error) {
	folder, err := s.EnsureFolder(filepath.Join(s.OutputDir, f.Subfolder()), false)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(folder, filename)
	s.log.Info().Str("file", filename).Str("folder", folder).Msg("publishing file")
	if err := copyFile(filepath.Join(tempDir, filename), dst); err != nil {
		return "", fmt.Errorf("publishing %s: %w", filename, err)
	}
	return dst, nil
}

// FileSize returns the size of path in bytes, or nil when the file cannot
// be read. Artifact size is advisory; failures are logged, not propagated.
func (s *Store) FileSize(path string) *int64 {
	info, err := os.Stat(path)
	if err != nil {
		s.log.Warn().Str("path", path).Msg("unable to retrieve file size for resource")
		return nil
	}
	size := info.Size()
	return &size
}

// ZipOptions control archive layout.
type ZipOptions struct {
	// Prefix is prepended to each member name (e.g. "name.gdb/").
	Prefix string
	// SkipSuffix excludes members by file name suffix (e.g. ".lock").
	SkipSuffix string
}

// ZipDir archives the files directly inside dir (non-recursive) into
// zipPath with deflate compression.
func (s *Store) ZipDir(dir, zipPath string, opts ZipOptions) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading archive source %s: %w", dir, err)
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(f)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if opts.SkipSuffix != "" && strings.HasSuffix(name, opts.SkipSuffix) {
			continue
		}
		w, err := zw.Create(opts.Prefix + name)
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("adding %s to archive: %w", name, err)
		}
		src, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("opening archive member %s: %w", name, err)
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("writing archive member %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing archive %s: %w", zipPath, err)
	}
	return f.Close()
}

// ZipFiles archives the given files into zipPath under their member names.
func (s *Store) ZipFiles(zipPath string, members map[string]string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(f)

	for name, path := range members {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("adding %s to archive: %w", name, err)
		}
		src, err := os.Open(path)
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("opening archive member %s: %w", path, err)
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("writing archive member %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing archive %s: %w", zipPath, err)
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
