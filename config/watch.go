package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/benz9527/xtree/lib/infra"
)

// Watch reloads the file whenever it is written or replaced and
// hands the result to onChange until ctx is done. The directory
// is watched, editors usually rename a temp file over the
// original.
func Watch(ctx context.Context, path string, onChange func(*Config, error)) error {
	if path == "" || onChange == nil {
		return infra.NewErrorStack("[config] watch without path or callback")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[config] create file watcher")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return infra.WrapErrorStack(err)
	}
	if err = watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return infra.WrapErrorStackWithMessage(err, "[config] watch "+filepath.Dir(abs))
	}

	go func() {
		defer func() {
			_ = watcher.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					onChange(Load(abs))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, infra.WrapErrorStackWithMessage(err, "[config] file watcher"))
			}
		}
	}()
	return nil
}
