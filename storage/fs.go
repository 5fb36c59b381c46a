package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

const (
	blobDirName = "blobs"
	tempDirName = ".tmp"
	gzipSuffix  = ".gz"
)

var ErrInvalidID = errors.New("invalid blob id")

// FSOptions configures the filesystem blob store.
type FSOptions struct {
	FileMode os.FileMode
	DirMode  os.FileMode
	Compress bool
}

type FSOption func(*FSOptions)

// WithCompression stores payloads gzip-encoded. A store reads back only
// payloads written under the same setting.
func WithCompression() FSOption {
	return func(o *FSOptions) {
		o.Compress = true
	}
}

func WithFileMode(mode os.FileMode) FSOption {
	return func(o *FSOptions) {
		o.FileMode = mode
	}
}

func WithDirMode(mode os.FileMode) FSOption {
	return func(o *FSOptions) {
		o.DirMode = mode
	}
}

// FSStore keeps one file per blob id in a flat directory under root.
// Writes go through a temp file and an atomic rename, so a payload is
// either fully present or absent.
type FSStore struct {
	root        string
	opts        FSOptions
	unavailable bool
}

// NewFSStore establishes the on-disk layout under root. Creating the layout
// is idempotent and never destroys existing data. When the directories
// cannot be created the store is returned in the unavailable state rather
// than failing the caller; every subsequent operation reports
// ErrUnavailable and the owning facade degrades to metadata-only mode.
func NewFSStore(root string, opts ...FSOption) *FSStore {
	options := FSOptions{
		FileMode: 0o644,
		DirMode:  0o755,
	}
	for _, opt := range opts {
		opt(&options)
	}

	s := &FSStore{
		root: filepath.Clean(root),
		opts: options,
	}

	for _, dir := range []string{blobDirName, tempDirName} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), options.DirMode); err != nil {
			log.Warn().Err(err).Str("root", s.root).Msg("blob store unavailable")
			s.unavailable = true
			return s
		}
	}
	return s
}

func (s *FSStore) Available() bool {
	return !s.unavailable
}

func (s *FSStore) Put(ctx context.Context, id string, r io.Reader) error {
	if s.unavailable {
		return ErrUnavailable
	}
	if err := validateID(id); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tempDirName), "put-*")
	if err != nil {
		return fmt.Errorf("put blob %q: %w", id, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var w io.Writer = tmp
	var gz *gzip.Writer
	if s.opts.Compress {
		gz = gzip.NewWriter(tmp)
		w = gz
	}

	if _, err := io.Copy(w, r); err != nil {
		tmp.Close()
		return fmt.Errorf("put blob %q: %w", id, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("put blob %q: %w", id, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("put blob %q: %w", id, err)
	}
	if err := os.Chmod(tmpPath, s.opts.FileMode); err != nil {
		return fmt.Errorf("put blob %q: %w", id, err)
	}

	if err := os.Rename(tmpPath, s.dataPath(id)); err != nil {
		return fmt.Errorf("put blob %q: %w", id, err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.unavailable {
		return nil, ErrUnavailable
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	f, err := os.Open(s.dataPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get blob %q: %w", id, err)
	}

	if !s.opts.Compress {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("get blob %q: %w", id, err)
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

func (s *FSStore) Delete(ctx context.Context, id string) error {
	if s.unavailable {
		return ErrUnavailable
	}
	if err := validateID(id); err != nil {
		return err
	}

	if err := os.Remove(s.dataPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %q: %w", id, err)
	}
	return nil
}

func (s *FSStore) dataPath(id string) string {
	name := id
	if s.opts.Compress {
		name += gzipSuffix
	}
	return filepath.Join(s.root, blobDirName, name)
}

// validateID rejects ids that could escape the blob directory. Ids are
// generated by the facade, so a failure here indicates a caller bug.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty id: %w", ErrInvalidID)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("id %q contains path separators: %w", id, ErrInvalidID)
	}
	if strings.Contains(id, "\x00") {
		return fmt.Errorf("id contains null byte: %w", ErrInvalidID)
	}
	return nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
