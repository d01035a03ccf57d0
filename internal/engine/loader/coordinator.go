// Package loader runs asset ingestion on a background worker and hands the
// finished asset set to the rendering goroutine.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/engine/model"
	"github.com/Faultbox/meshport/internal/logger"
)

var (
	// ErrClosed is returned by Load and Wait after Close.
	ErrClosed = errors.New("loader: coordinator closed")
	// ErrSuperseded is returned by Wait for a request replaced by a newer Load.
	ErrSuperseded = errors.New("loader: request superseded")
)

// Ingester turns one file into an asset.
type Ingester interface {
	LoadFile(path string) (*model.LoadedAsset, error)
}

// Uploader moves a group's buffers to the graphics backend.
// Both methods are called only from the goroutine calling Drain.
type Uploader interface {
	Upload(g *model.MaterialGroup) (model.GPUHandle, error)
	Release(h model.GPUHandle)
}

// ProgressFunc is called on the worker goroutine after each input file.
type ProgressFunc func(done, total int)

type request struct {
	seq      uint64
	id       uuid.UUID
	paths    []string
	progress ProgressFunc
}

// publication is the single-slot handoff from worker to consumer.
type publication struct {
	seq    uint64
	assets []*model.LoadedAsset
}

// Coordinator owns one worker goroutine. Requests are processed one at a
// time; a new Load replaces a queued one and makes a running one stale.
type Coordinator struct {
	ing Ingester
	log *zap.Logger

	slot   atomic.Pointer[publication]
	latest atomic.Uint64

	mu      sync.Mutex
	pending *request
	status  Status        // latest request
	changed chan struct{} // closed and replaced on every status change
	closed  bool

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewCoordinator starts a worker that ingests files with ing.
func NewCoordinator(ing Ingester) *Coordinator {
	c := &Coordinator{
		ing:     ing,
		log:     logger.Named("loader"),
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

// Load queues a request for paths and returns its sequence number.
// An empty path list is rejected with a *model.ConfigurationError.
func (c *Coordinator) Load(paths []string, progress ProgressFunc) (uint64, error) {
	if len(paths) == 0 {
		return 0, &model.ConfigurationError{Reason: model.ErrEmptyRequest}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	req := &request{
		seq:      c.latest.Add(1),
		id:       uuid.New(),
		paths:    append([]string(nil), paths...),
		progress: progress,
	}
	if c.pending != nil {
		c.log.Debug("queued request superseded",
			zap.Uint64("seq", c.pending.seq),
			zap.Stringer("request", c.pending.id),
		)
	}
	c.pending = req
	c.setStatusLocked(Status{Seq: req.seq, ID: req.id, State: Idle, Total: len(paths)})
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}

	c.log.Info("load requested",
		zap.Uint64("seq", req.seq),
		zap.Stringer("request", req.id),
		zap.Int("files", len(paths)),
	)
	return req.seq, nil
}

// Status returns the status of the latest request.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Wait blocks until request seq reaches a terminal state and returns its
// status. It returns ErrSuperseded once a newer request exists.
func (c *Coordinator) Wait(ctx context.Context, seq uint64) (Status, error) {
	for {
		c.mu.Lock()
		st, changed, closed := c.status, c.changed, c.closed
		c.mu.Unlock()

		switch {
		case seq < st.Seq:
			return Status{}, ErrSuperseded
		case seq > st.Seq:
			return Status{}, fmt.Errorf("loader: unknown request %d", seq)
		case st.State.Terminal():
			return st, nil
		case closed:
			return st, ErrClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Drain runs on the consumer goroutine. While a newer request than ds is
// in flight, ds is kept but marked not ready; if that request fails, ds is
// ready again. When a publication for the latest request is waiting, the
// previous contents are released through up, every group is uploaded, its
// CPU buffers are dropped and ds becomes ready. Drain returns true only when
// ds received new contents.
func (c *Coordinator) Drain(ds *Dataset, up Uploader) bool {
	pub := c.slot.Swap(nil)
	latest := c.latest.Load()
	if pub != nil && pub.seq != latest {
		c.log.Debug("stale publication discarded",
			zap.Uint64("seq", pub.seq),
			zap.Uint64("latest", latest),
		)
		pub = nil
	}
	if pub == nil {
		if ds.Seq < latest {
			st := c.Status()
			ds.Ready = ds.Assets != nil && st.Seq == latest && st.State == Failed
		}
		return false
	}

	if ds.Assets != nil {
		c.log.Debug("releasing previous dataset",
			zap.Uint64("seq", ds.Seq),
			zap.Int("groups", ds.NumGroups()),
		)
	}
	ds.Release(up)

	start := time.Now()
	uploaded := 0
	for _, a := range pub.assets {
		for _, g := range a.Groups {
			h, err := up.Upload(g)
			if err != nil {
				c.log.Warn("group upload failed",
					zap.String("file", a.SourcePath),
					zap.String("group", g.Name),
					zap.Error(err),
				)
			} else {
				g.GPU = h
				uploaded++
			}
			g.ReleaseBuffers()
		}
	}

	ds.Seq = pub.seq
	ds.Assets = pub.assets
	ds.recomputeBounds()
	ds.Ready = true

	c.log.Info("dataset ready",
		zap.Uint64("seq", ds.Seq),
		zap.Int("assets", len(ds.Assets)),
		zap.Int("groups", uploaded),
		zap.Duration("took", time.Since(start)),
	)
	return true
}

// Close stops the worker after the request in progress, if any, finishes.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.pending = nil
		c.notifyLocked()
		c.mu.Unlock()

		close(c.quit)
		<-c.done
	})
}

func (c *Coordinator) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case <-c.wake:
		}

		c.mu.Lock()
		req := c.pending
		c.pending = nil
		c.mu.Unlock()

		if req != nil {
			c.process(req)
		}
	}
}

func (c *Coordinator) process(req *request) {
	log := c.log.With(zap.Uint64("seq", req.seq), zap.Stringer("request", req.id))
	start := time.Now()
	c.update(req.seq, func(s *Status) { s.State = Running })

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("load worker panic: %v", r)
			log.Error("load failed", zap.Error(err))
			c.update(req.seq, func(s *Status) {
				s.State = Failed
				s.Err = err
			})
		}
	}()

	total := len(req.paths)
	assets := make([]*model.LoadedAsset, 0, total)
	for i, path := range req.paths {
		asset, err := c.ing.LoadFile(path)
		if err != nil {
			log.Warn("file skipped", zap.String("file", path), zap.Error(err))
		} else {
			assets = append(assets, asset)
		}
		c.update(req.seq, func(s *Status) {
			if err != nil {
				s.Failed++
			} else {
				s.Loaded++
			}
		})
		log.Debug("load progress", zap.Int("done", i+1), zap.Int("total", total))
		if req.progress != nil {
			req.progress(i+1, total)
		}
	}

	c.slot.Store(&publication{seq: req.seq, assets: assets})
	c.update(req.seq, func(s *Status) { s.State = Completed })

	log.Info("load completed",
		zap.Int("loaded", len(assets)),
		zap.Int("failed", total-len(assets)),
		zap.Duration("took", time.Since(start)),
	)
}

// update applies fn to the status if seq is still the latest request.
func (c *Coordinator) update(seq uint64, fn func(*Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.Seq != seq {
		return
	}
	st := c.status
	fn(&st)
	c.setStatusLocked(st)
}

func (c *Coordinator) setStatusLocked(st Status) {
	c.status = st
	c.notifyLocked()
}

func (c *Coordinator) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
