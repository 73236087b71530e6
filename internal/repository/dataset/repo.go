package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/datasplit/internal/domain"
	domsplit "github.com/kailas-cloud/datasplit/internal/domain/split"
)

// Kind is the subfolder of a split directory.
type Kind string

// Split subfolders.
const (
	Images Kind = "images"
	Labels Kind = "labels"
)

// Kinds returns the subfolders created under every split.
func Kinds() []Kind {
	return []Kind{Images, Labels}
}

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Repository writes the <root>/<split>/{images,labels} output tree.
type Repository struct {
	root string
}

// New creates an output tree rooted at root.
func New(root string) *Repository {
	return &Repository{root: filepath.Clean(root)}
}

// Root returns the output root directory.
func (r *Repository) Root() string { return r.root }

// Dir returns the directory for a split subfolder.
func (r *Repository) Dir(sp domsplit.Name, kind Kind) string {
	return filepath.Join(r.root, string(sp), string(kind))
}

// EnsureLayout creates every split/subfolder directory. Existing directories are kept.
func (r *Repository) EnsureLayout(ctx context.Context) error {
	for _, sp := range domsplit.Order() {
		for _, kind := range Kinds() {
			if err := ctx.Err(); err != nil {
				return err
			}
			dir := r.Dir(sp, kind)
			if err := os.MkdirAll(dir, dirPerm); err != nil {
				return domain.NewIOError(domain.OpMkdir, dir, err)
			}
		}
	}
	return nil
}

// Copy copies src into the split subfolder under name, replacing any existing file.
// The content goes to a temp file in the target directory first and is renamed into place.
func (r *Repository) Copy(ctx context.Context, src string, sp domsplit.Name, kind Kind, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkTarget(sp, name); err != nil {
		return err
	}

	dest := filepath.Join(r.Dir(sp, kind), name)
	if err := copyAtomic(src, dest); err != nil {
		return domain.NewIOError(domain.OpCopy, src, err)
	}
	return nil
}

// Remove deletes name from the split subfolder. A file that is already gone is not an error.
func (r *Repository) Remove(ctx context.Context, sp domsplit.Name, kind Kind, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkTarget(sp, name); err != nil {
		return err
	}

	dest := filepath.Join(r.Dir(sp, kind), name)
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewIOError(domain.OpRemove, dest, err)
	}
	return nil
}

func checkTarget(sp domsplit.Name, name string) error {
	if !sp.IsValid() {
		return fmt.Errorf("unknown split %q", sp)
	}
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}

func copyAtomic(src, dest string) error {
	in, err := os.Open(src) //nolint:gosec // src comes from the dataset listing
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
