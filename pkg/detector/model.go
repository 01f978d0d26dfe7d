package detector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Model is a trained checkpoint.
type Model struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Load inspects a checkpoint file.
func Load(path string) (*Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("checkpoint is not a regular file: %s", abs)
	}
	return &Model{Path: abs, ModTime: stat.ModTime(), Size: stat.Size()}, nil
}

// Handle holds the model being served.
//
// Get and Swap can be called concurrently.
type Handle struct {
	mu    sync.RWMutex
	model *Model
}

func NewHandle(m *Model) *Handle {
	return &Handle{model: m}
}

// Get returns the current model, and false when no model is loaded.
func (h *Handle) Get() (*Model, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.model, h.model != nil
}

// Swap replaces the current model with m, and returns the previous one.
func (h *Handle) Swap(m *Model) *Model {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.model
	h.model = m
	return old
}
