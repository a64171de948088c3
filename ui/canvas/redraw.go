package canvas

import (
	"sync"

	"print-layout/internal/layout"
)

type redrawRequest struct {
	layout     *layout.Layout
	zoom       float64
	generation uint64
}

// Redrawer renders previews off the caller's goroutine. Requests coalesce:
// while a render is running only the newest pending request is kept, and a
// frame is delivered only if no newer request was made meanwhile. All cache
// access happens on the single worker goroutine.
type Redrawer struct {
	preview *Preview
	deliver func(*Frame)

	mu         sync.Mutex
	cond       *sync.Cond
	pending    *redrawRequest
	evictions  []string
	reset      bool
	generation uint64
	closed     bool
	done       chan struct{}
}

// NewRedrawer starts a worker rendering with p and passing fresh frames to
// deliver. deliver runs on the worker goroutine.
func NewRedrawer(p *Preview, deliver func(*Frame)) *Redrawer {
	r := &Redrawer{
		preview: p,
		deliver: deliver,
		done:    make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.run()
	return r
}

// Request schedules a render of a snapshot of l and returns its generation.
func (r *Redrawer) Request(l *layout.Layout, zoom float64) uint64 {
	snapshot := l.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.pending = &redrawRequest{layout: snapshot, zoom: zoom, generation: r.generation}
	r.cond.Signal()
	return r.generation
}

// Evict drops cached renderings of path before the next render.
func (r *Redrawer) Evict(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions = append(r.evictions, path)
	r.cond.Signal()
}

// Reset clears the preview caches before the next render.
func (r *Redrawer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset = true
	r.cond.Signal()
}

// Generation returns the most recently issued generation.
func (r *Redrawer) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Close stops the worker and waits for it to exit. Pending requests are
// dropped.
func (r *Redrawer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cond.Signal()
	r.mu.Unlock()
	<-r.done
}

func (r *Redrawer) run() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for !r.closed && r.pending == nil && len(r.evictions) == 0 && !r.reset {
			r.cond.Wait()
		}
		if r.closed {
			r.mu.Unlock()
			return
		}
		req, evictions, reset := r.pending, r.evictions, r.reset
		r.pending, r.evictions, r.reset = nil, nil, false
		r.mu.Unlock()

		if reset {
			r.preview.Reset()
		}
		for _, path := range evictions {
			r.preview.Evict(path)
		}
		if req == nil {
			continue
		}

		frame := r.preview.Render(req.layout, req.zoom)
		frame.Generation = req.generation

		r.mu.Lock()
		stale := r.generation != req.generation || r.closed
		r.mu.Unlock()
		if !stale && r.deliver != nil {
			r.deliver(frame)
		}
	}
}
