package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/infrastructure/storage"
)

// Entry pairs a storage key with the filename it gets inside the archive.
type Entry struct {
	Key  string
	Name string
}

// Build streams every entry out of storage into one zip held in memory.
// Batches are capped at 50 images, so the archive stays small enough to
// buffer.
func Build(ctx context.Context, st storage.Storage, entries []Entry) (*bytes.Buffer, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries to package")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, entry := range entries {
		if err := addEntry(ctx, zw, st, entry); err != nil {
			zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}

	zlog.Logger.Info().
		Int("entries", len(entries)).
		Int("bytes", buf.Len()).
		Msg("download package built")

	return &buf, nil
}

func addEntry(ctx context.Context, zw *zip.Writer, st storage.Storage, entry Entry) error {
	rc, err := st.Get(ctx, entry.Key)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Key, err)
	}
	defer rc.Close()

	w, err := zw.Create(entry.Name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", entry.Name, err)
	}

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("write zip entry %s: %w", entry.Name, err)
	}

	return nil
}
