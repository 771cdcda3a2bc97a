// Package rawio saves and loads raw account-history snapshots, so a slow
// walk can be done once and the downstream stages re-run offline.
package rawio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// Snapshot is a complete raw pull for one account and window. Operations are
// stored unclassified; loading a snapshot re-runs classification, so snapshot
// files stay valid across classifier changes.
type Snapshot struct {
	Account    string               `json:"account"`
	Token      string               `json:"token"`
	Window     model.Window         `json:"window"`
	Operations []model.RawOperation `json:"operations"`
}

// Save writes the snapshot to path atomically.
func Save(path string, snap Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving snapshot into place: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if snap.Account == "" {
		return Snapshot{}, fmt.Errorf("snapshot %s has no account", path)
	}
	return snap, nil
}
