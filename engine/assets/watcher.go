package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// RELOAD_SETTLE_TIME lets a compiler finish its writes before a change is reported.
const RELOAD_SETTLE_TIME = 150 * time.Millisecond

type ReloadFunc func(artifact string)

/**
 * @brief Watches the shader directory and reports changed artifacts that the
 * pipeline table uses. It never touches GPU objects: the callback only
 * queues work for the render thread.
 */
type ShaderWatcher struct {
	library  *ShaderLibrary
	watcher  *fsnotify.Watcher
	onChange ReloadFunc
	known    map[string]bool
	settle   time.Duration
}

func NewShaderWatcher(library *ShaderLibrary, onChange ReloadFunc) (*ShaderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(library.Directory()); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", library.Directory(), err)
	}
	known := make(map[string]bool)
	for _, name := range metadata.ShaderArtifacts() {
		known[name] = true
	}
	return &ShaderWatcher{
		library:  library,
		watcher:  w,
		onChange: onChange,
		known:    known,
		settle:   RELOAD_SETTLE_TIME,
	}, nil
}

// relevant reports the shader name behind an event worth a reload.
func (sw *ShaderWatcher) relevant(e fsnotify.Event) (string, bool) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) {
		return "", false
	}
	name, ok := ArtifactName(e.Name)
	if !ok || !sw.known[name] {
		return "", false
	}
	return name, true
}

/**
 * @brief Runs until ctx is cancelled. Changes are collected while files keep
 * changing and reported once they settle, one call per artifact.
 */
func (sw *ShaderWatcher) Run(ctx context.Context) error {
	defer sw.watcher.Close()

	pending := map[string]bool{}
	timer := time.NewTimer(sw.settle)
	if !timer.Stop() {
		<-timer.C
	}

	core.LogInfo("watching %s for shader changes", sw.library.Directory())
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case e, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			name, ok := sw.relevant(e)
			if !ok {
				continue
			}
			sw.library.Invalidate(name)
			pending[name] = true
			timer.Reset(sw.settle)

		case <-timer.C:
			for name := range pending {
				core.LogInfo("shader artifact %s changed", name)
				sw.onChange(name)
			}
			clear(pending)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			core.LogError("shader watcher: %s", err)
		}
	}
}
