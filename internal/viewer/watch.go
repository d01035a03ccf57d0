package viewer

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/logger"
)

// relevantExt lists file types whose change triggers a reload besides the
// input files themselves.
var relevantExt = map[string]bool{
	".mtl": true, ".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".tga": true, ".gif": true, ".webp": true,
}

// Watcher reports changes to a set of input files, their materials and
// textures. Bursts of events within the debounce window collapse into one
// signal on C.
type Watcher struct {
	C <-chan struct{}

	fsw      *fsnotify.Watcher
	inputs   map[string]bool
	debounce time.Duration
	out      chan struct{}
	log      *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher watches the directories containing paths.
// Directories are watched instead of files so editors that replace files
// on save are still seen.
func NewWatcher(paths []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	out := make(chan struct{}, 1)
	w := &Watcher{
		C:        out,
		fsw:      fsw,
		inputs:   make(map[string]bool),
		debounce: debounce,
		out:      out,
		log:      logger.Named("watch"),
		done:     make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		w.inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go w.loop()
	w.log.Info("watching inputs", zap.Int("files", len(w.inputs)), zap.Int("dirs", len(dirs)))
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		w.fsw.Close()
		<-w.done
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change detected", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case w.out <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if w.inputs[ev.Name] {
		return true
	}
	return relevantExt[strings.ToLower(filepath.Ext(ev.Name))]
}
