package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is written next to the CSV files of every run
const ManifestFile = "manifest.json"

// Manifest records what a CSV run produced, so a later import can verify
// row counts and the run can be reproduced from its seed.
type Manifest struct {
	Seed       uint64          `json:"seed"`
	Now        time.Time       `json:"now"`
	Currency   string          `json:"currency"`
	Compressed bool            `json:"compressed"`
	Tables     []ManifestTable `json:"tables"`
}

// ManifestTable lists the files of one table
type ManifestTable struct {
	Name  string   `json:"name"`
	Rows  int      `json:"rows"`
	Files []string `json:"files"`
}

// Rows returns the recorded row count for table, or -1 if unknown
func (m *Manifest) Rows(table string) int {
	for _, t := range m.Tables {
		if t.Name == table {
			return t.Rows
		}
	}
	return -1
}

// ReadManifest loads the manifest from an output directory
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644)
}
