package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"
	"github.com/opst/solarscan/pkg/detector"
	"github.com/opst/solarscan/pkg/metrics"
)

// reloader returns a fsnotify event handler which swaps the serving model
// when the checkpoint file is (re)written.
//
// Removal of the checkpoint does not unload the serving model.
func reloader(handle *detector.Handle, m *metrics.Metrics, checkpoint string, logger *log.Logger) func(fsnotify.Event) {
	checkpoint = filepath.Clean(checkpoint)
	return func(ev fsnotify.Event) {
		if filepath.Clean(ev.Name) != checkpoint {
			return
		}
		if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
			return
		}
		model, err := detector.Load(checkpoint)
		if err != nil {
			logger.Warnf("checkpoint %s is updated, but it cannot be loaded: %s", checkpoint, err)
			return
		}
		if prev := handle.Swap(model); prev == nil || !prev.ModTime.Equal(model.ModTime) || prev.Size != model.Size {
			logger.Infof("model is reloaded: %s", model.Path)
		}
		m.ModelLoaded(true)
	}
}
