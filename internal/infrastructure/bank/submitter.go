package bank

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// Compile-time interface check.
var _ port.BankSubmitter = (*DirectorySubmitter)(nil)

// DirectorySubmitter delivers ACH files by writing them to an outbound
// directory picked up by the bank's transfer agent. The file name doubles as
// the confirmation: file ids are unique, so re-submitting after a crash
// overwrites the same file instead of duplicating the batch.
type DirectorySubmitter struct {
	dir    string
	logger *slog.Logger
}

func NewDirectorySubmitter(dir string, logger *slog.Logger) *DirectorySubmitter {
	return &DirectorySubmitter{dir: dir, logger: logger}
}

func (s *DirectorySubmitter) Submit(ctx context.Context, file *model.NachaFile) (string, error) {
	name := fmt.Sprintf("ach-%s.txt", file.ID)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(file.Contents), 0o600); err != nil {
		return "", fmt.Errorf("write ach file %s: %w", path, err)
	}
	s.logger.InfoContext(ctx, "ach file delivered",
		slog.String("file_id", file.ID.String()),
		slog.String("path", path),
		slog.Int("entries", file.EntryCount))
	return name, nil
}
