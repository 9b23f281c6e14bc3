package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/timectrl"
)

const (
	// DefaultSpeed is the tick period used when none is configured.
	DefaultSpeed = 500 * time.Millisecond
	// MinSpeed is the smallest accepted tick period; smaller values clamp.
	MinSpeed = time.Millisecond
)

// SpeedPresets are the tick periods offered by the transport controls,
// slowest first.
var SpeedPresets = []time.Duration{
	2000 * time.Millisecond,
	1000 * time.Millisecond,
	500 * time.Millisecond,
	200 * time.Millisecond,
	100 * time.Millisecond,
}

// PlaybackMetricsRecorder receives playback events for Prometheus-friendly
// counters and gauges.
type PlaybackMetricsRecorder interface {
	ObserveLoad(totalSteps int)
	ObserveTick()
	ObserveCursor(index int)
	ObservePlaying(playing bool)
}

// PlaybackController replays a Trace over time. It owns the playback cursor,
// the only mutable state in the replay core.
//
// All transitions and timer callbacks run under one mutex, so the cursor
// has a single writer at any moment. Timers are one-shot and re-armed on
// every tick; each carries a token and the trace it was armed for, and a
// callback whose token or trace no longer matches is discarded. That is what
// guarantees no tick from a previous trace touches the cursor once Load
// returns.
//
// Subscribers are called outside the lock with a copied View. They must not
// block for long; they may call back into the controller.
type PlaybackController struct {
	mu sync.Mutex

	clock   timectrl.Clock
	log     logging.Logger
	metrics PlaybackMetricsRecorder
	palette Palette

	trace    *Trace
	swatches *SwatchResolver
	state    PlaybackState
	cursor   int
	speed    time.Duration

	timer     timectrl.Timer
	tickToken uint64

	revision uint64
	closed   bool

	subs    map[int]func(View)
	nextSub int
}

// PlaybackOption customises PlaybackController construction.
type PlaybackOption func(*PlaybackController)

// WithClock sets the clock used to schedule ticks.
func WithClock(c timectrl.Clock) PlaybackOption {
	return func(pc *PlaybackController) {
		if c != nil {
			pc.clock = c
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) PlaybackOption {
	return func(pc *PlaybackController) {
		if l != nil {
			pc.log = l
		}
	}
}

// WithMetricsRecorder attaches a playback metrics recorder.
func WithMetricsRecorder(r PlaybackMetricsRecorder) PlaybackOption {
	return func(pc *PlaybackController) {
		pc.metrics = r
	}
}

// WithSpeed sets the initial tick period.
func WithSpeed(d time.Duration) PlaybackOption {
	return func(pc *PlaybackController) {
		pc.speed = clampSpeed(d)
	}
}

// WithPalette sets the swatch palette used to build views.
func WithPalette(p Palette) PlaybackOption {
	return func(pc *PlaybackController) {
		if len(p) > 0 {
			pc.palette = append(Palette(nil), p...)
		}
	}
}

// NewPlaybackController returns an Idle controller.
func NewPlaybackController(opts ...PlaybackOption) *PlaybackController {
	pc := &PlaybackController{
		clock:   timectrl.NewRealClock(),
		log:     logging.Noop(),
		palette: DefaultPalette(),
		speed:   DefaultSpeed,
		state:   StateIdle,
		subs:    make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

func clampSpeed(d time.Duration) time.Duration {
	if d < MinSpeed {
		return MinSpeed
	}
	return d
}

// Load makes t the active trace: any state moves to Ready with the cursor at
// 0, and any pending tick is cancelled before Load returns.
func (pc *PlaybackController) Load(t *Trace) error {
	if t == nil || t.TotalSteps() == 0 {
		return fmt.Errorf("%w: cannot load an empty trace", ErrTraceValidation)
	}
	swatches := NewSwatchResolver(t, pc.palette)

	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return fmt.Errorf("%w: cannot load trace %s", ErrClosed, t.ID())
	}
	pc.cancelTimerLocked()
	pc.trace = t
	pc.swatches = swatches
	pc.cursor = 0
	pc.setStateLocked(StateReady)
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	pc.log.Info(context.Background(), "trace loaded",
		logging.String("trace_id", t.ID()),
		logging.Int("total_steps", t.TotalSteps()),
		logging.Int("backtracks", t.Backtracks()),
		logging.Bool("success", t.Success()),
	)
	if pc.metrics != nil {
		pc.metrics.ObserveLoad(t.TotalSteps())
		pc.metrics.ObserveCursor(0)
	}
	notify(subs, view)
	return nil
}

// Unload drops the active trace and cancels any pending tick. The
// controller returns to Idle and can be loaded again.
func (pc *PlaybackController) Unload() {
	pc.mu.Lock()
	if pc.closed || pc.trace == nil {
		pc.cancelTimerLocked()
		pc.mu.Unlock()
		return
	}
	pc.cancelTimerLocked()
	pc.trace = nil
	pc.swatches = nil
	pc.cursor = 0
	pc.setStateLocked(StateIdle)
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	pc.log.Debug(context.Background(), "trace unloaded")
	notify(subs, view)
}

// Close tears the controller down. Any pending tick is cancelled
// unconditionally, subscribers receive a final Idle view, and every later
// call is a no-op.
func (pc *PlaybackController) Close() {
	pc.mu.Lock()
	pc.cancelTimerLocked()
	if pc.closed {
		pc.mu.Unlock()
		return
	}
	pc.trace = nil
	pc.swatches = nil
	pc.cursor = 0
	pc.setStateLocked(StateIdle)
	view, subs := pc.publishLocked()
	pc.closed = true
	pc.subs = make(map[int]func(View))
	pc.mu.Unlock()

	notify(subs, view)
}

// Play starts advancing the cursor every Speed. It is a no-op when no trace
// is loaded, when already playing, or when the cursor is on the last step.
func (pc *PlaybackController) Play() {
	pc.mu.Lock()
	if pc.closed || pc.trace == nil || pc.state == StatePlaying || pc.cursor >= pc.lastIndexLocked() {
		pc.mu.Unlock()
		return
	}
	pc.setStateLocked(StatePlaying)
	pc.armTimerLocked()
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	pc.log.Debug(context.Background(), "playback started",
		logging.Int("cursor", view.CurrentStepIndex),
		logging.Duration("speed", view.Speed),
	)
	notify(subs, view)
}

// Pause stops a running playback. Pausing while Paused or Ready changes
// nothing.
func (pc *PlaybackController) Pause() {
	pc.mu.Lock()
	if pc.state != StatePlaying {
		pc.mu.Unlock()
		return
	}
	pc.cancelTimerLocked()
	pc.setStateLocked(StatePaused)
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	pc.log.Debug(context.Background(), "playback paused", logging.Int("cursor", view.CurrentStepIndex))
	notify(subs, view)
}

// TogglePlay pauses a running playback and starts a stopped one.
func (pc *PlaybackController) TogglePlay() {
	pc.mu.Lock()
	playing := pc.state == StatePlaying
	pc.mu.Unlock()
	if playing {
		pc.Pause()
		return
	}
	pc.Play()
}

// Seek moves the cursor to index, clamped to [0, TotalSteps-1]. It keeps
// the current state, so an active playback carries on from the new spot.
// Without a loaded trace it does nothing.
func (pc *PlaybackController) Seek(index int) {
	pc.seek(func(int) int { return index })
}

// Next moves one step forward.
func (pc *PlaybackController) Next() { pc.seek(func(c int) int { return c + 1 }) }

// Prev moves one step back.
func (pc *PlaybackController) Prev() { pc.seek(func(c int) int { return c - 1 }) }

// First moves to the first step.
func (pc *PlaybackController) First() { pc.seek(func(int) int { return 0 }) }

// Last moves to the last step.
func (pc *PlaybackController) Last() {
	pc.seek(func(int) int { return int(^uint(0) >> 1) })
}

// Reset moves the cursor back to 0. The Playing/Paused state is kept, so a
// running playback restarts from the beginning.
func (pc *PlaybackController) Reset() { pc.First() }

func (pc *PlaybackController) seek(target func(cursor int) int) {
	pc.mu.Lock()
	if pc.closed || pc.trace == nil {
		pc.mu.Unlock()
		return
	}
	next := target(pc.cursor)
	if next < 0 {
		next = 0
	}
	if last := pc.lastIndexLocked(); next > last {
		next = last
	}
	if next == pc.cursor {
		pc.mu.Unlock()
		return
	}
	pc.cursor = next
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	if pc.metrics != nil {
		pc.metrics.ObserveCursor(next)
	}
	notify(subs, view)
}

// SetSpeed changes the tick period. Values below MinSpeed are clamped.
// While playing, the pending tick is cancelled and re-armed with the new
// period so the change applies from the next tick.
func (pc *PlaybackController) SetSpeed(d time.Duration) {
	d = clampSpeed(d)

	pc.mu.Lock()
	if pc.closed || pc.speed == d {
		pc.mu.Unlock()
		return
	}
	pc.speed = d
	if pc.state == StatePlaying {
		pc.cancelTimerLocked()
		pc.armTimerLocked()
	}
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	pc.log.Debug(context.Background(), "playback speed changed", logging.Duration("speed", d))
	notify(subs, view)
}

// Speed returns the current tick period.
func (pc *PlaybackController) Speed() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.speed
}

// State returns the current state.
func (pc *PlaybackController) State() PlaybackState {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.state
}

// Cursor returns the current step index, or -1 when Idle.
func (pc *PlaybackController) Cursor() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.trace == nil {
		return -1
	}
	return pc.cursor
}

// Trace returns the active trace, or nil.
func (pc *PlaybackController) Trace() *Trace {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.trace
}

// Snapshot returns the current View without changing anything.
func (pc *PlaybackController) Snapshot() View {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.viewLocked()
}

// Subscribe registers fn to receive a View after every change. It returns
// an unsubscribe function.
func (pc *PlaybackController) Subscribe(fn func(View)) (unsubscribe func()) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	id := pc.nextSub
	pc.nextSub++
	if !pc.closed {
		pc.subs[id] = fn
	}

	return func() {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		delete(pc.subs, id)
	}
}

func (pc *PlaybackController) tick(token uint64, armedFor *Trace) {
	pc.mu.Lock()
	if pc.closed || pc.trace != armedFor || token != pc.tickToken || pc.state != StatePlaying {
		pc.mu.Unlock()
		return
	}
	pc.timer = nil

	last := pc.lastIndexLocked()
	if pc.cursor < last {
		pc.cursor++
	}
	reachedEnd := pc.cursor >= last
	if reachedEnd {
		pc.tickToken++
		pc.setStateLocked(StatePaused)
	} else {
		pc.armTimerLocked()
	}
	view, subs := pc.publishLocked()
	pc.mu.Unlock()

	if pc.metrics != nil {
		pc.metrics.ObserveTick()
		pc.metrics.ObserveCursor(view.CurrentStepIndex)
	}
	if reachedEnd {
		pc.log.Debug(context.Background(), "playback reached last step",
			logging.String("trace_id", view.TraceID),
			logging.Int("cursor", view.CurrentStepIndex),
		)
	}
	notify(subs, view)
}

func (pc *PlaybackController) armTimerLocked() {
	pc.tickToken++
	token := pc.tickToken
	armedFor := pc.trace
	pc.timer = pc.clock.AfterFunc(pc.speed, func() {
		pc.tick(token, armedFor)
	})
}

func (pc *PlaybackController) cancelTimerLocked() {
	pc.tickToken++
	if pc.timer != nil {
		pc.timer.Stop()
		pc.timer = nil
	}
}

func (pc *PlaybackController) setStateLocked(s PlaybackState) {
	if pc.state == s {
		return
	}
	wasPlaying := pc.state == StatePlaying
	pc.state = s
	if pc.metrics != nil && wasPlaying != (s == StatePlaying) {
		pc.metrics.ObservePlaying(s == StatePlaying)
	}
}

func (pc *PlaybackController) lastIndexLocked() int {
	if pc.trace == nil {
		return -1
	}
	return pc.trace.TotalSteps() - 1
}

// publishLocked bumps the revision and returns the view plus a copy of the
// subscriber list for notification outside the lock.
func (pc *PlaybackController) publishLocked() (View, []func(View)) {
	pc.revision++
	view := pc.viewLocked()
	subs := make([]func(View), 0, len(pc.subs))
	for _, fn := range pc.subs {
		subs = append(subs, fn)
	}
	return view, subs
}

func (pc *PlaybackController) viewLocked() View {
	v := View{
		State:            pc.state,
		IsPlaying:        pc.state == StatePlaying,
		Speed:            pc.speed,
		Revision:         pc.revision,
		CurrentStepIndex: -1,
		Coloring:         make(map[string]string),
		Swatches:         make(map[string]Swatch),
	}
	if pc.trace == nil {
		return v
	}

	st, err := StateAt(pc.trace, pc.cursor)
	if err != nil {
		// The cursor is clamped on every write; reaching this is a defect.
		pc.log.Error(context.Background(), "cursor outside trace", logging.Err(err))
		return v
	}
	v.TraceID = pc.trace.ID()
	v.TotalSteps = pc.trace.TotalSteps()
	v.CurrentStepIndex = st.Index
	v.Coloring = st.Coloring
	v.SelectedRegion = st.Region
	v.StepType = st.StepType
	v.Color = st.Color
	v.BacktrackReason = st.BacktrackReason
	v.Success = pc.trace.Success()
	v.Backtracks = pc.trace.Backtracks()
	v.FinalColoring = FinalColoringFor(pc.trace)
	v.Swatches = pc.swatches.Swatches(st.Index)
	v.Legend = pc.swatches.Legend(st.Index)
	return v
}

func notify(subs []func(View), v View) {
	for _, fn := range subs {
		fn(v)
	}
}
