package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dataset is a market data CSV available to the API.
type Dataset struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ListDatasets returns every *.csv directly under dir, sorted by name.
func ListDatasets(dir string) ([]Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}
	var out []Dataset
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Dataset{
			Name:       strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:       filepath.Join(dir, e.Name()),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ResolveDataset maps a dataset name to its file under dir. Names may not
// contain path separators.
func ResolveDataset(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid dataset name %q", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		name += ".csv"
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("dataset %q not found: %w", strings.TrimSuffix(name, ".csv"), err)
	}
	return path, nil
}

// GetDefaultDataDir returns DATA_DIR or ./data.
func GetDefaultDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}
