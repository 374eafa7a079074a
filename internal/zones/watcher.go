// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package zones

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/logging"
)

// defaultDebounce coalesces bursts of file events into one rebuild. VPN
// config writes often arrive as several events (truncate, write, rename).
const defaultDebounce = 500 * time.Millisecond

// Watcher rebuilds a classifier when its VPN source files change. Files are
// watched via their parent directory so an editor's replace-by-rename does
// not drop the watch.
type Watcher struct {
	classifier *Classifier
	logger     *logging.Logger
	fs         *fsnotify.Watcher
	debounce   time.Duration

	// files maps a watched directory to the base names of interest inside
	// it. An empty set means every file in the directory counts.
	files map[string]map[string]bool
}

// WatchPaths lists the VPN source files and directories of a config that
// should trigger binding rebuilds when modified.
func WatchPaths(cfg *config.Config) []string {
	if cfg == nil || cfg.VPN == nil {
		return nil
	}
	var paths []string
	if wg := cfg.VPN.WireGuard; wg != nil && wg.Enabled && wg.ConfigPath != "" {
		paths = append(paths, wg.ConfigPath)
	}
	if ovpn := cfg.VPN.OpenVPN; ovpn != nil && ovpn.Enabled {
		if ovpn.ServerConfig != "" {
			paths = append(paths, ovpn.ServerConfig)
		}
		if ovpn.CCDDir != "" {
			paths = append(paths, ovpn.CCDDir)
		}
		if ovpn.N2NDir != "" {
			paths = append(paths, ovpn.N2NDir)
		}
	}
	if ipsec := cfg.VPN.IPsec; ipsec != nil && ipsec.Enabled {
		path := ipsec.ConfPath
		if path == "" {
			path = "/etc/ipsec.conf"
		}
		paths = append(paths, path)
	}
	return paths
}

// NewWatcher prepares a watcher over the given files and directories. Paths
// that do not exist yet are still covered through their parent directory.
func NewWatcher(classifier *Classifier, paths []string, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		classifier: classifier,
		logger:     logger.WithComponent("zones-watch"),
		fs:         fs,
		debounce:   defaultDebounce,
		files:      make(map[string]map[string]bool),
	}

	added := make(map[string]bool)
	for _, path := range paths {
		dir, name := path, ""
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			dir, name = filepath.Dir(path), filepath.Base(path)
		}
		if !added[dir] {
			if err := fs.Add(dir); err != nil {
				w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
				continue
			}
			added[dir] = true
		}
		if name == "" {
			// Empty set marks the whole directory as interesting.
			w.files[dir] = map[string]bool{}
		} else if set, ok := w.files[dir]; !ok {
			w.files[dir] = map[string]bool{name: true}
		} else if !wholeDir(set) {
			set[name] = true
		}
	}

	return w, nil
}

func wholeDir(set map[string]bool) bool { return len(set) == 0 }

// Start runs the event pump until the context is cancelled. Rebuilds are
// debounced so a burst of writes costs one pass.
func (w *Watcher) Start(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("vpn sources changed, rebuilding zone bindings")
			w.classifier.Rebuild()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	const ops = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	if event.Op&ops == 0 {
		return false
	}
	dir := filepath.Dir(event.Name)
	set, watched := w.files[dir]
	if !watched {
		return false
	}
	if wholeDir(set) {
		return true
	}
	return set[filepath.Base(event.Name)]
}
