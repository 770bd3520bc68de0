package skillengine

import (
	"github.com/fsnotify/fsnotify"

	"github.com/vinayprograms/agentkit/logging"
)

// WatchCatalog watches path for writes and hot-reloads eng's catalog on
// every change, so editing skills.yaml on disk takes effect without
// restarting the agent loop. The returned watcher's Close stops
// watching; callers should defer it alongside the rest of the process's
// closers.
func WatchCatalog(path string, eng *Engine) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	logger := logging.New().WithComponent("skillengine")
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
				cat, err := LoadCatalog(path)
				if err != nil {
					logger.Warn("skill catalog reload failed", map[string]interface{}{"error": err.Error()})
					continue
				}
				eng.SetCatalog(cat)
				logger.Info("skill catalog reloaded", map[string]interface{}{"path": path, "skills": len(cat.Names())})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("skill catalog watch error", map[string]interface{}{"error": err.Error()})
			}
		}
	}()
	return w, nil
}
