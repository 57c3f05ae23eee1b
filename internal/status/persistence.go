// Package status tracks the outcome of sync runs and persists it between restarts.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

// StatusFileName is the name of the status file
const StatusFileName = "status.json"

// StatusPersistence stores the run status of each sync target
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the status of target
	SaveStatus(ctx context.Context, target string, status *SyncStatus) error

	// LoadStatus loads the status of target.
	// Returns an empty SyncStatus if nothing was saved yet (first run)
	LoadStatus(ctx context.Context, target string) (*SyncStatus, error)

	// LoadAllStatus loads the status of every known target
	LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error)
}

// fileStatusPersistence keeps one JSON file per target under basePath
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a status store rooted at basePath
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{basePath: basePath}
}

// SaveStatus writes the status to a temporary file and renames it into place
func (f *fileStatusPersistence) SaveStatus(_ context.Context, target string, status *SyncStatus) error {
	dir := filepath.Join(f.basePath, target)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for target '%s': %w", target, err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status for target '%s': %w", target, err)
	}

	return WriteFileAtomic(filepath.Join(dir, StatusFileName), data)
}

// LoadStatus reads the status of target, an empty status when the file is missing
func (f *fileStatusPersistence) LoadStatus(_ context.Context, target string) (*SyncStatus, error) {
	path := filepath.Join(f.basePath, target, StatusFileName)

	// #nosec G304 -- path is built from the configured data directory and an internal target name
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for target '%s': %w", target, err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status for target '%s': %w", target, err)
	}

	return &status, nil
}

// LoadAllStatus loads every target directory under basePath. Targets whose
// status cannot be read are left out.
func (f *fileStatusPersistence) LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error) {
	result := make(map[string]*SyncStatus)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.basePath, entry.Name(), StatusFileName)); err != nil {
			continue
		}

		status, err := f.LoadStatus(ctx, entry.Name())
		if err != nil {
			continue
		}
		result[entry.Name()] = status
	}

	return result, nil
}

// WriteFileAtomic writes data next to path and renames it over path
func WriteFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", tempPath, err)
	}

	return nil
}
