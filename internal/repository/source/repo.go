package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/kailas-cloud/datasplit/internal/domain"
	"github.com/kailas-cloud/datasplit/internal/domain/annotation"
)

// Config describes the input dataset layout.
type Config struct {
	ImagesDir string
	LabelsDir string
	ImageExt  string
	LabelExt  string
}

// Repository reads the images/ and labels/ directories of a dataset.
type Repository struct {
	imagesDir string
	labelsDir string
	imageExt  string
	labelExt  string
}

// New creates a filesystem dataset source.
func New(cfg Config) *Repository {
	if cfg.ImageExt == "" {
		cfg.ImageExt = annotation.DefaultImageExt
	}
	if cfg.LabelExt == "" {
		cfg.LabelExt = annotation.DefaultLabelExt
	}
	return &Repository{
		imagesDir: filepath.Clean(cfg.ImagesDir),
		labelsDir: filepath.Clean(cfg.LabelsDir),
		imageExt:  cfg.ImageExt,
		labelExt:  cfg.LabelExt,
	}
}

// Check verifies that the labels directory exists and, if requireImages is set, the images directory too.
func (r *Repository) Check(requireImages bool) error {
	if err := checkDir(r.labelsDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrLabelsDirNotFound, r.labelsDir)
		}
		return err
	}
	if !requireImages {
		return nil
	}
	if err := checkDir(r.imagesDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrImagesDirNotFound, r.imagesDir)
		}
		return err
	}
	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return domain.NewIOError(domain.OpStat, dir, err)
	}
	if !info.IsDir() {
		return domain.NewIOError(domain.OpStat, dir, fmt.Errorf("not a directory: %w", fs.ErrNotExist))
	}
	return nil
}

// List returns the annotation file names in the labels directory, sorted by name.
// Subdirectories and files with other extensions are skipped.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.labelsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLabelsDirNotFound, r.labelsDir)
		}
		return nil, domain.NewIOError(domain.OpList, r.labelsDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !annotation.HasExt(e.Name(), r.labelExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open opens an annotation file for reading. The caller closes it.
func (r *Repository) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := r.LabelPath(name)
	f, err := os.Open(path) //nolint:gosec // path is built from a directory listing
	if err != nil {
		return nil, domain.NewIOError(domain.OpOpen, path, err)
	}
	return f, nil
}

// LabelPath returns the source path of an annotation file.
func (r *Repository) LabelPath(name string) string {
	return filepath.Join(r.labelsDir, name)
}

// ImageName returns the image file name paired with an annotation file.
func (r *Repository) ImageName(label string) string {
	return annotation.PairName(label, r.labelExt, r.imageExt)
}

// ImagePath returns the source path of the image paired with an annotation file.
func (r *Repository) ImagePath(label string) string {
	return filepath.Join(r.imagesDir, r.ImageName(label))
}

// Exists reports whether path is an existing regular file.
func (r *Repository) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, domain.NewIOError(domain.OpStat, path, err)
	}
	return info.Mode().IsRegular(), nil
}
