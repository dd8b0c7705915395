// Package sound plays the terminal-style effects of the site. A Player is an
// owned resource: construct one and hand it to whatever needs to make noise.
package sound

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Triangle Waveform = "triangle"
)

type Effect string

const (
	Keystroke    Effect = "keystroke"
	Click        Effect = "click"
	Beep         Effect = "beep"
	Success      Effect = "success"
	Notification Effect = "notification"
)

// Effects lists every effect the Player knows.
var Effects = []Effect{Keystroke, Click, Beep, Success, Notification}

// Tone is one oscillator burst. Offset delays it relative to the effect start.
type Tone struct {
	Frequency float64       `json:"frequency"`
	Duration  time.Duration `json:"duration"`
	Waveform  Waveform      `json:"waveform"`
	Gain      float64       `json:"gain"`
	Offset    time.Duration `json:"offset"`
}

// Variant is one way of playing an effect; effects with several variants pick
// one at random.
type Variant []Tone

type voice struct {
	frequency float64
	duration  time.Duration
	waveform  Waveform
	gain      float64 // multiplier of the player volume
	offset    time.Duration
}

var keystrokeFrequencies = []float64{800, 850, 900, 950}

func effectVoices(e Effect) ([][]voice, bool) {
	switch e {
	case Keystroke:
		out := make([][]voice, len(keystrokeFrequencies))
		for i, f := range keystrokeFrequencies {
			out[i] = []voice{{f, 50 * time.Millisecond, Square, 0.5, 0}}
		}
		return out, true
	case Click:
		return [][]voice{{{1200, 100 * time.Millisecond, Square, 0.7, 0}}}, true
	case Beep:
		return [][]voice{{{800, 150 * time.Millisecond, Sine, 0.8, 0}}}, true
	case Success:
		return [][]voice{{
			{800, 100 * time.Millisecond, Sine, 0.6, 0},
			{1000, 100 * time.Millisecond, Sine, 0.6, 100 * time.Millisecond},
		}}, true
	case Notification:
		return [][]voice{{{600, 200 * time.Millisecond, Triangle, 0.5, 0}}}, true
	}
	return nil, false
}

// Sink turns tones into sound.
type Sink interface {
	Play(tones []Tone) error
}

// DefaultVolume matches the browser player's initial gain.
const DefaultVolume = 0.3

// Player owns the enabled flag and volume of the effects.
type Player struct {
	mu      sync.Mutex
	sink    Sink
	enabled bool
	volume  float64
	rand    *rand.Rand
	log     *zap.Logger
}

type Option func(*Player)

func WithLogger(l *zap.Logger) Option {
	return func(p *Player) { p.log = l }
}

// WithRand fixes the source used to pick effect variants.
func WithRand(r *rand.Rand) Option {
	return func(p *Player) { p.rand = r }
}

func WithVolume(v float64) Option {
	return func(p *Player) { p.volume = clamp(v) }
}

func WithEnabled(enabled bool) Option {
	return func(p *Player) { p.enabled = enabled }
}

// NewPlayer returns an enabled Player at DefaultVolume. A nil sink plays
// nothing.
func NewPlayer(sink Sink, opts ...Option) *Player {
	p := &Player{
		sink:    sink,
		enabled: true,
		volume:  DefaultVolume,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play renders e on the sink. Failures are logged and swallowed.
func (p *Player) Play(e Effect) {
	p.mu.Lock()
	if !p.enabled || p.sink == nil {
		p.mu.Unlock()
		return
	}
	tones, err := p.tonesLocked(e)
	sink := p.sink
	p.mu.Unlock()

	if err != nil {
		p.log.Debug("sound effect skipped", zap.String("effect", string(e)), zap.Error(err))
		return
	}
	if err := sink.Play(tones); err != nil {
		p.log.Debug("sound playback failed", zap.String("effect", string(e)), zap.Error(err))
	}
}

// Tones returns the tones e would play now, picking a variant at random.
func (p *Player) Tones(e Effect) ([]Tone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tonesLocked(e)
}

func (p *Player) tonesLocked(e Effect) ([]Tone, error) {
	variants, ok := effectVoices(e)
	if !ok {
		return nil, fmt.Errorf("unknown sound effect %q", e)
	}
	v := variants[0]
	if len(variants) > 1 {
		v = variants[p.rand.Intn(len(variants))]
	}
	return p.render(v), nil
}

func (p *Player) render(vs []voice) []Tone {
	out := make([]Tone, len(vs))
	for i, v := range vs {
		out[i] = Tone{
			Frequency: v.frequency,
			Duration:  v.duration,
			Waveform:  v.waveform,
			Gain:      v.gain * p.volume,
			Offset:    v.offset,
		}
	}
	return out
}

// Catalog is every variant of every effect at the current volume, for
// clients that synthesize sound themselves.
type Catalog struct {
	Enabled bool                 `json:"enabled"`
	Volume  float64              `json:"volume"`
	Effects map[Effect][]Variant `json:"effects"`
}

func (p *Player) Catalog() Catalog {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := Catalog{Enabled: p.enabled, Volume: p.volume, Effects: make(map[Effect][]Variant, len(Effects))}
	for _, e := range Effects {
		variants, _ := effectVoices(e)
		for _, v := range variants {
			c.Effects[e] = append(c.Effects[e], p.render(v))
		}
	}
	return c
}

// Toggle flips the enabled flag and returns the new value.
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = !p.enabled
	return p.enabled
}

func (p *Player) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetVolume sets the volume, clamped to 0..1.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clamp(v)
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// BellSink rings the terminal bell once per tone. A terminal cannot pitch the
// bell, so frequency and gain are ignored; silent tones are skipped.
type BellSink struct {
	W io.Writer
}

func (b BellSink) Play(tones []Tone) error {
	for _, t := range tones {
		if t.Gain <= 0 {
			continue
		}
		if _, err := io.WriteString(b.W, "\a"); err != nil {
			return err
		}
	}
	return nil
}
