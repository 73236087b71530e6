package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/datasplit/internal/domain"
)

// Supported encodings.
const (
	FormatParquet = "parquet"
	FormatYAML    = "yaml"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer persists a manifest to a single file.
type Writer struct {
	path   string
	format string
}

// NewWriter creates a manifest writer for path in the given format.
func NewWriter(path, format string) (*Writer, error) {
	switch format {
	case FormatParquet, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownManifestFormat, format)
	}
	return &Writer{path: filepath.Clean(path), format: format}, nil
}

// Write encodes m and replaces the destination file atomically.
func (w *Writer) Write(ctx context.Context, m Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return domain.NewIOError(domain.OpMkdir, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return domain.NewIOError(domain.OpWrite, w.path, err)
	}
	tmpPath := tmp.Name()

	if err := w.encode(tmp, m); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return domain.NewIOError(domain.OpWrite, w.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return domain.NewIOError(domain.OpWrite, w.path, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return domain.NewIOError(domain.OpWrite, w.path, err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return domain.NewIOError(domain.OpWrite, w.path, err)
	}
	return nil
}

func (w *Writer) encode(out io.Writer, m Manifest) error {
	if w.format == FormatYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}
		return nil
	}

	opts := make([]parquet.WriterOption, 0, 5)
	for _, kv := range m.Meta.keyValues() {
		opts = append(opts, parquet.KeyValueMetadata(kv[0], kv[1]))
	}
	pw := parquet.NewGenericWriter[Row](out, opts...)
	if _, err := pw.Write(m.Rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
