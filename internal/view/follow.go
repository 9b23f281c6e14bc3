package view

import (
	"io"
	"strings"
	"sync"

	"github.com/signalsfoundry/colortrace/core"
)

// Follower writes a frame for every snapshot it receives. Pass Observe to
// PlaybackController.Subscribe. Deliveries that arrive out of order are
// dropped by revision.
type Follower struct {
	mu        sync.Mutex
	w         io.Writer
	renderers []Renderer
	separator string
	last      uint64
	frames    int
}

// NewFollower writes frames to w, joining the output of each renderer with a
// blank line.
func NewFollower(w io.Writer, renderers ...Renderer) *Follower {
	return &Follower{w: w, renderers: renderers, separator: "\n\n"}
}

// Observe renders v unless a newer revision was already written.
func (f *Follower) Observe(v core.View) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.frames > 0 && v.Revision <= f.last {
		return
	}
	f.last = v.Revision
	f.frames++

	parts := make([]string, 0, len(f.renderers))
	for _, r := range f.renderers {
		parts = append(parts, r.Render(v))
	}
	_, _ = io.WriteString(f.w, strings.Join(parts, f.separator)+"\n\n")
}

// Frames returns how many frames were written.
func (f *Follower) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}
