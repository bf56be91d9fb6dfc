package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"go.uber.org/zap"
)

// snapshot is the single serialized record holding every form and the
// per-form response lists in submission order
type snapshot struct {
	Forms     []entity.FormDefinition      `json:"forms"`
	Responses map[string][]entity.Response `json:"responses"`
}

// File is a Memory repository persisted to one JSON file after every write.
// Writes go through a temp file, fsync and rename so a crash never leaves a
// partial record behind.
type File struct {
	mem    *Memory
	path   string
	logger *logger.Logger

	writeMu sync.Mutex
}

// OpenFile loads the snapshot at path, or starts from seed when it does not exist
func OpenFile(path string, logger *logger.Logger, seed ...entity.FormDefinition) (*File, error) {
	f := &File{
		mem:    NewMemory(),
		path:   path,
		logger: logger,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f.mem = NewMemory(seed...)
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	f.mem.restore(snap)

	logger.Info("snapshot loaded",
		zap.String("path", path),
		zap.Int("forms", len(snap.Forms)))

	return f, nil
}

func (f *File) ListForms(ctx context.Context, ownerID string) ([]entity.FormDefinition, error) {
	return f.mem.ListForms(ctx, ownerID)
}

func (f *File) GetForm(ctx context.Context, formID string) (entity.FormDefinition, error) {
	return f.mem.GetForm(ctx, formID)
}

func (f *File) ListResponses(ctx context.Context, formID string) ([]entity.Response, error) {
	return f.mem.ListResponses(ctx, formID)
}

func (f *File) SaveForm(ctx context.Context, form entity.FormDefinition) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	prev := f.mem.snapshot()
	if err := f.mem.SaveForm(ctx, form); err != nil {
		return err
	}
	return f.flush(prev)
}

func (f *File) AppendResponse(ctx context.Context, resp entity.Response) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	prev := f.mem.snapshot()
	if err := f.mem.AppendResponse(ctx, resp); err != nil {
		return err
	}
	return f.flush(prev)
}

// flush writes the current state; on failure the in-memory state rolls back to prev
func (f *File) flush(prev snapshot) error {
	if err := f.write(f.mem.snapshot()); err != nil {
		f.mem.restore(prev)
		f.logger.Error("error write snapshot",
			zap.String("path", f.path),
			zap.Error(err))
		return err
	}
	return nil
}

func (f *File) write(snap snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "tmp-snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
