package main

import (
	"github.com/fsnotify/fsnotify"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/sandahltim/StardewAI-sub000/internal/resolver"
)

// watchReservedPolicy hot-reloads the reserved-items policy file on
// every on-disk write, the same fsnotify shape as
// skillengine.WatchCatalog, so editing reserved.yaml takes effect
// without restarting the agent loop.
func watchReservedPolicy(path string, policy *resolver.FileReservedPolicy) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	logger := logging.New().WithComponent("resolver")
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := policy.Reload(path); err != nil {
					logger.Warn("reserved-items reload failed", map[string]interface{}{"error": err.Error()})
					continue
				}
				logger.Info("reserved-items policy reloaded", map[string]interface{}{"path": path})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("reserved-items watch error", map[string]interface{}{"error": err.Error()})
			}
		}
	}()
	return w, nil
}
