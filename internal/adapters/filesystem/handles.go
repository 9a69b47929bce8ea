// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/ports/secondary"
)

// HandleRepository implements secondary.HandleRepository over JSON files.
// Relative paths resolve against baseDir.
type HandleRepository struct {
	baseDir string
}

// NewHandleRepository creates a hand-off repository rooted at baseDir.
// If baseDir is empty, the working directory is used.
func NewHandleRepository(baseDir string) (*HandleRepository, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}
	return &HandleRepository{baseDir: baseDir}, nil
}

// LoadDeploy reads a deploy document.
func (r *HandleRepository) LoadDeploy(ctx context.Context, path string) (*handle.DeployOutput, error) {
	var doc handle.DeployOutput
	if err := r.load(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveDeploy writes a deploy document. Keys this tool does not model are
// carried over from the existing file.
func (r *HandleRepository) SaveDeploy(ctx context.Context, path string, doc *handle.DeployOutput) error {
	return r.save(path, doc, true)
}

// LoadTrain reads a training document.
func (r *HandleRepository) LoadTrain(ctx context.Context, path string) (*handle.TrainOutput, error) {
	var doc handle.TrainOutput
	if err := r.load(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveTest replaces the traffic document at path.
func (r *HandleRepository) SaveTest(ctx context.Context, path string, doc *handle.TestOutput) error {
	return r.save(path, doc, false)
}

func (r *HandleRepository) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

func (r *HandleRepository) load(path string, v any) error {
	full := r.resolve(path)
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("hand-off %s: %w", full, secondary.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", full, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", full, err)
	}
	return nil
}

func (r *HandleRepository) save(path string, v any, merge bool) error {
	full := r.resolve(path)

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", full, err)
	}

	if merge {
		existing, err := os.ReadFile(full)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", full, err)
		}
		if len(existing) > 0 {
			if data, err = mergeObjects(existing, data); err != nil {
				return fmt.Errorf("failed to merge %s: %w", full, err)
			}
		}
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to encode %s: %w", full, err)
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", full, err)
	}

	return writeAtomic(full, append(pretty, '\n'))
}

// mergeObjects overlays the JSON object update onto base, recursing into
// nested objects.
func mergeObjects(base, update []byte) ([]byte, error) {
	var b, u map[string]any
	if err := json.Unmarshal(base, &b); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(update, &u); err != nil {
		return nil, err
	}
	return json.Marshal(overlay(b, u))
}

func overlay(base, update map[string]any) map[string]any {
	if base == nil {
		return update
	}
	for k, v := range update {
		if uv, ok := v.(map[string]any); ok {
			if bv, ok := base[k].(map[string]any); ok {
				base[k] = overlay(bv, uv)
				continue
			}
		}
		base[k] = v
	}
	return base
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Ensure HandleRepository implements the interface
var _ secondary.HandleRepository = (*HandleRepository)(nil)
