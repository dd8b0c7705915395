// Package reveal types text out one character at a time once a section has
// been scrolled into view, playing a section's stages strictly one after the
// other.
package reveal

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrInvalidStage is returned by New for stages with unusable timing.
var ErrInvalidStage = errors.New("invalid reveal stage")

// Phase is where a single stage is in its reveal.
type Phase int

const (
	Idle Phase = iota
	Scheduled
	Revealing
	Complete
)

var phaseNames = [...]string{"idle", "scheduled", "revealing", "complete"}

func (p Phase) String() string {
	if p < Idle || p > Complete {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Policy decides what leaving the viewport does to a triggered sequence.
type Policy int

const (
	// OneShot triggers once per instance and ignores exits.
	OneShot Policy = iota
	// ResetOnExit returns every stage to Idle on exit so the next entry replays.
	ResetOnExit
)

func (p Policy) String() string {
	if p == ResetOnExit {
		return "reset"
	}
	return "once"
}

// ParsePolicy accepts "once" (or empty) and "reset".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "once", "oneshot", "one-shot":
		return OneShot, nil
	case "reset", "reset-on-exit":
		return ResetOnExit, nil
	}
	return OneShot, fmt.Errorf("unknown reveal policy %q", s)
}

// Stage is one string revealed within a section's sequence.
type Stage struct {
	Key  string `json:"key"`
	Text string `json:"text"`
	// CharDelay is the interval between two revealed characters.
	CharDelay time.Duration `json:"char_delay"`
	// Pause is waited before the stage starts, counted from the completion
	// of the previous stage or from the trigger for the first one.
	Pause time.Duration `json:"pause"`
}

// Duration is the slot the stage occupies once started: one CharDelay per
// rune. The last rune shows one CharDelay before the slot ends.
func (s Stage) Duration() time.Duration {
	return time.Duration(utf8.RuneCountInString(s.Text)) * s.CharDelay
}

// TotalDuration is the time from trigger to the completion of the last stage.
// Empty stages take no time.
func TotalDuration(stages []Stage) time.Duration {
	var total time.Duration
	for _, st := range stages {
		if st.Text == "" {
			continue
		}
		total += st.Pause + st.Duration()
	}
	return total
}

// StageState is the observable state of one stage.
type StageState struct {
	Key       string `json:"key"`
	Phase     Phase  `json:"phase"`
	Shown     string `json:"shown"`
	Revealing bool   `json:"revealing"`
}

// Frame reports a state change of the stage at Index.
type Frame struct {
	Index int `json:"index"`
	StageState
}

type stageRun struct {
	Stage
	runes []rune
	shown int
	phase Phase
}

func (r *stageRun) state() StageState {
	return StageState{
		Key:       r.Key,
		Phase:     r.phase,
		Shown:     string(r.runes[:r.shown]),
		Revealing: r.phase != Idle && r.shown < len(r.runes),
	}
}

// Option configures a Sequencer.
type Option func(*Sequencer)

func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

func WithPolicy(p Policy) Option {
	return func(s *Sequencer) { s.policy = p }
}

// WithObserver registers f to receive every frame in order. f runs on the
// timer goroutine and must not block or call Enter, Exit or Close.
func WithObserver(f func(Frame)) Option {
	return func(s *Sequencer) { s.observer = f }
}

// Sequencer reveals a section's stages after its viewport entry signal.
// Only one timer is pending at any time: each stage is scheduled when the
// previous one completes.
type Sequencer struct {
	clock    Clock
	policy   Policy
	observer func(Frame)

	// emitMu serialises state changes with their delivery so observers see
	// frames in order even when a real clock fires on fresh goroutines.
	emitMu sync.Mutex

	mu         sync.Mutex
	stages     []stageRun
	triggered  bool
	closed     bool
	gen        int
	timer      Timer
	done       chan struct{}
	doneClosed bool
}

// New validates stages and returns an untriggered Sequencer.
func New(stages []Stage, opts ...Option) (*Sequencer, error) {
	s := &Sequencer{
		clock:  RealClock(),
		policy: OneShot,
		stages: make([]stageRun, len(stages)),
		done:   make(chan struct{}),
	}
	for i, st := range stages {
		if st.Pause < 0 || st.CharDelay < 0 {
			return nil, fmt.Errorf("%w: stage %d (%s): negative timing", ErrInvalidStage, i, st.Key)
		}
		if st.Text != "" && st.CharDelay == 0 {
			return nil, fmt.Errorf("%w: stage %d (%s): char delay must be positive", ErrInvalidStage, i, st.Key)
		}
		s.stages[i] = stageRun{Stage: st, runes: []rune(st.Text)}
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	return s, nil
}

// Enter is the viewport entry signal. It reports whether this call started
// the sequence; repeated entries are ignored until a reset.
func (s *Sequencer) Enter() bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || s.triggered {
		s.mu.Unlock()
		return false
	}
	s.triggered = true
	frames := make([]Frame, 0, len(s.stages)+1)
	for i := range s.stages {
		s.stages[i].phase = Scheduled
		frames = append(frames, s.frameLocked(i))
	}
	frames = append(frames, s.beginLocked(0, s.gen)...)
	s.mu.Unlock()

	s.emit(frames)
	return true
}

// Exit is the viewport exit signal. It only has an effect under ResetOnExit.
func (s *Sequencer) Exit() {
	if s.policy != ResetOnExit {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || !s.triggered {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	s.triggered = false
	if s.doneClosed {
		s.done = make(chan struct{})
		s.doneClosed = false
	}
	frames := make([]Frame, 0, len(s.stages))
	for i := range s.stages {
		s.stages[i].shown = 0
		s.stages[i].phase = Idle
		frames = append(frames, s.frameLocked(i))
	}
	s.mu.Unlock()

	s.emit(frames)
}

// Close cancels any pending timer. No frame is delivered after Close returns.
func (s *Sequencer) Close() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelLocked()
}

// State returns a snapshot of every stage.
func (s *Sequencer) State() []StageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StageState, len(s.stages))
	for i := range s.stages {
		out[i] = s.stages[i].state()
	}
	return out
}

// Triggered reports whether the current run has been started.
func (s *Sequencer) Triggered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggered
}

// Done is closed once every stage of the current run completed.
func (s *Sequencer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Policy returns the configured exit policy.
func (s *Sequencer) Policy() Policy { return s.policy }

// Len returns the number of stages.
func (s *Sequencer) Len() int { return len(s.stages) }

func (s *Sequencer) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// beginLocked starts stage i, completing empty stages on the spot.
func (s *Sequencer) beginLocked(i, gen int) []Frame {
	var frames []Frame
	for ; i < len(s.stages); i++ {
		st := &s.stages[i]
		if len(st.runes) == 0 {
			st.phase = Complete
			frames = append(frames, s.frameLocked(i))
			continue
		}
		if st.Pause > 0 {
			idx := i
			s.timer = s.clock.AfterFunc(st.Pause, func() { s.fire(gen, func() []Frame { return s.revealLocked(idx, gen) }) })
			return frames
		}
		return append(frames, s.revealLocked(i, gen)...)
	}
	s.timer = nil
	if !s.doneClosed {
		close(s.done)
		s.doneClosed = true
	}
	return frames
}

// revealLocked shows one more rune of stage i and schedules what follows.
func (s *Sequencer) revealLocked(i, gen int) []Frame {
	st := &s.stages[i]
	st.shown++
	if st.shown < len(st.runes) {
		st.phase = Revealing
		s.timer = s.clock.AfterFunc(st.CharDelay, func() { s.fire(gen, func() []Frame { return s.revealLocked(i, gen) }) })
	} else {
		st.phase = Complete
		next := i + 1
		s.timer = s.clock.AfterFunc(st.CharDelay, func() { s.fire(gen, func() []Frame { return s.beginLocked(next, gen) }) })
	}
	return []Frame{s.frameLocked(i)}
}

func (s *Sequencer) fire(gen int, step func() []Frame) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	frames := step()
	s.mu.Unlock()

	s.emit(frames)
}

func (s *Sequencer) frameLocked(i int) Frame {
	return Frame{Index: i, StageState: s.stages[i].state()}
}

func (s *Sequencer) emit(frames []Frame) {
	if s.observer == nil {
		return
	}
	for _, f := range frames {
		s.observer(f)
	}
}
