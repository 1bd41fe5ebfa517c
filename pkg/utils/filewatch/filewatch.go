// Package filewatch watches configuration files.
package filewatch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// UntilModified returns a context canceled when file is written, created, removed or renamed.
//
// The directory of file is watched, so replacing the file by rename
// (as editors and configmap volumes do) is detected too.
// Other files in the directory and mode changes are ignored.
//
// context.Cause of the returned context tells the event.
// Calling the returned func stops watching.
//
// The directory of file must exist.
func UntilModified(ctx context.Context, file string) (context.Context, func(), error) {
	target, err := filepath.Abs(file)
	if err != nil {
		return nil, nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return nil, nil, err
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !concerns(event, target) {
					continue
				}
				cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("watching %s: %w", target, err))
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}

func concerns(event fsnotify.Event, target string) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == target
}
