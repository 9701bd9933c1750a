package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"textgend/internal/common/fsutil"
	"textgend/pkg/types"
)

// LoadDir scans a directory for *.gguf files and builds a registry from filenames.
// ID is the full filename (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, types.Model{ID: name, Name: name, Path: filepath.Join(abs, name)})
	}
	return models, nil
}

// Resolve maps a model reference to a file path. A reference naming an
// existing file is returned as is; otherwise it is looked up by ID (with or
// without the .gguf extension) among the models in dir.
func Resolve(ref, dir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty model reference")
	}
	p, err := fsutil.ExpandHome(ref)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p, nil
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("model %q not found", ref)
	}
	models, err := LoadDir(dir)
	if err != nil {
		return "", err
	}
	for _, m := range models {
		if m.ID == ref || strings.TrimSuffix(m.ID, filepath.Ext(m.ID)) == ref {
			return m.Path, nil
		}
	}
	return "", fmt.Errorf("model %q not found in %s", ref, dir)
}
