package forest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	artifactKind    = "random_forest"
	artifactVersion = 1
)

// artifact is the on-disk model format. encoding/json writes float64 in the
// shortest form that parses back to the same value, so a reloaded forest
// predicts bit-identically.
type artifact struct {
	Kind    string    `json:"kind"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Columns []string  `json:"columns"`
	Config  Config    `json:"config"`
	Trees   []Tree    `json:"trees"`
}

// Save writes a fitted forest to path. The file is written to a temporary
// sibling first and renamed, so readers never observe a partial artifact.
func Save(f *Forest, path string) error {
	if !f.Fitted() {
		return ErrNotFitted
	}
	data, err := json.Marshal(artifact{
		Kind:    artifactKind,
		Version: artifactVersion,
		SavedAt: time.Now().UTC(),
		Columns: f.columns,
		Config:  f.cfg,
		Trees:   f.trees,
	})
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename model: %w", err)
	}
	return nil
}

// Load reads a forest previously written by Save.
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if a.Kind != artifactKind {
		return nil, fmt.Errorf("decode model: unexpected kind %q", a.Kind)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("decode model: unsupported version %d", a.Version)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("decode model: %w", ErrNotFitted)
	}
	for i, t := range a.Trees {
		if err := t.validate(len(a.Columns)); err != nil {
			return nil, fmt.Errorf("decode model: tree %d: %w", i, err)
		}
	}
	return &Forest{cfg: a.Config, columns: a.Columns, trees: a.Trees}, nil
}

func (t Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left == leaf && n.Right == leaf {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: child out of range", i)
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
	}
	return nil
}
