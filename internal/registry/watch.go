package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
)

// DefaultDebounce groups editor save bursts into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads h whenever a registry file under paths changes, until ctx
// is done. Directories are watched recursively as they exist at start.
func Watch(ctx context.Context, h *Holder, debounce time.Duration, paths ...string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, p := range paths {
		if err := addRecursive(fw, p); err != nil {
			return err
		}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Watching registry for changes.", "paths", paths)

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()
	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isRegistryFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.Debug("Registry file changed.", "file", event.Name, "op", event.Op.String())
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			// Failures are logged by Reload and the previous snapshot stays live.
			_ = h.Reload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Registry watcher error.", "error", err)
		}
	}
}

func isRegistryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hcl", ".yaml", ".yml":
		return true
	}
	return false
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fw.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
}
