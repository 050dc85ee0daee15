package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Archive keeps rendered ledger exports on the local filesystem, grouped by
// plan and month (e.g. "plan-1/2024/03/debt_ledger_2024-03-15.csv").
type Archive struct {
	basePath string
	now      func() time.Time
}

// NewArchive creates an archive rooted at basePath
func NewArchive(basePath string) (*Archive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Archive{basePath: basePath, now: time.Now}, nil
}

// Save writes data under the plan's directory and returns the relative path.
// An existing file with the same name is kept; the new one gets a suffix.
func (a *Archive) Save(planID, filename string, data []byte) (string, error) {
	if strings.ContainsAny(planID, `/\`) || planID == "" || planID == "." || planID == ".." {
		return "", fmt.Errorf("invalid plan id %q", planID)
	}
	dir := filepath.Join(a.basePath, planID, a.now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	name := filepath.Base(filename)
	path := filepath.Join(dir, name)
	if a.Exists(mustRel(a.basePath, path)) {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:8], ext)
		path = filepath.Join(dir, name)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return mustRel(a.basePath, path), nil
}

// Open returns an archived export for reading
func (a *Archive) Open(relativePath string) (*os.File, error) {
	return os.Open(a.FullPath(relativePath))
}

// Exists checks if an archived export exists
func (a *Archive) Exists(relativePath string) bool {
	_, err := os.Stat(a.FullPath(relativePath))
	return err == nil
}

// FullPath returns the absolute path of an archived export
func (a *Archive) FullPath(relativePath string) string {
	return filepath.Join(a.basePath, relativePath)
}

func mustRel(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
