// Package tui renders the portfolio in the terminal. Moving to a section is
// its viewport entry: the section's terminal lines type themselves out while
// the rest of the page is shown below them.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/reveal"
	"github.com/Zachkp/termfolio/internal/sound"
)

const (
	menuWidth     = 26
	blinkInterval = 530 * time.Millisecond
	cursorGlyph   = "█"
)

// Deps configure the terminal view.
type Deps struct {
	Content *content.Portfolio
	Policy  reveal.Policy
	// Clock drives the reveals; nil means the wall clock.
	Clock  reveal.Clock
	Player *sound.Player
	Log    *zap.Logger
	// Style is a glamour standard style name; empty means "dark".
	Style string
}

type sectionItem struct {
	sec content.Section
}

func (i sectionItem) Title() string       { return i.sec.Title }
func (i sectionItem) Description() string { return "#" + i.sec.ID }
func (i sectionItem) FilterValue() string { return i.sec.Title }

// shared is the state every copy of the model points at.
type shared struct {
	frames    chan frameMsg
	quit      chan struct{}
	closeOnce sync.Once
	seqs      []*reveal.Sequencer
	// typed counts the runes already heard per section and stage.
	typed [][]int
	// bodies caches rendered markdown per section for the current width.
	bodies map[int]string
	md     *glamour.TermRenderer
	mdWrap int
}

type model struct {
	theme    Theme
	deps     Deps
	sections []content.Section
	s        *shared

	menu     list.Model
	view     viewport.Model
	active   int
	cursorOn bool
	width    int
	height   int
	status   string
}

func newModel(deps Deps) (model, error) {
	if deps.Content == nil {
		return model{}, fmt.Errorf("tui: content is required")
	}
	if deps.Clock == nil {
		deps.Clock = reveal.RealClock()
	}
	if deps.Player == nil {
		deps.Player = sound.NewPlayer(nil)
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Style == "" {
		deps.Style = "dark"
	}

	sections := deps.Content.OrderedSections()
	if len(sections) == 0 {
		return model{}, fmt.Errorf("tui: no sections to show")
	}

	size := 1
	for _, sec := range sections {
		for _, st := range sec.Stages {
			size += 2 + utf8.RuneCountInString(st.Text)
		}
	}
	s := &shared{
		frames: make(chan frameMsg, size),
		quit:   make(chan struct{}),
		bodies: make(map[int]string),
	}

	items := make([]list.Item, len(sections))
	for i, sec := range sections {
		items[i] = sectionItem{sec: sec}
		idx := i
		seq, err := reveal.New(sec.RevealStages(),
			reveal.WithClock(deps.Clock),
			reveal.WithPolicy(deps.Policy),
			reveal.WithObserver(func(f reveal.Frame) {
				select {
				case s.frames <- frameMsg{section: idx, frame: f}:
				default:
					// The view reads sequencer state directly; a dropped frame
					// only skips a keystroke sound.
				}
			}))
		if err != nil {
			s.closeAll()
			return model{}, fmt.Errorf("section %s: %w", sec.ID, err)
		}
		s.seqs = append(s.seqs, seq)
		s.typed = append(s.typed, make([]int, len(sec.Stages)))
	}

	l := list.New(items, list.NewDefaultDelegate(), menuWidth, 20)
	l.Title = deps.Content.Personal.Name
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return model{
		theme:    DefaultTheme(),
		deps:     deps,
		sections: sections,
		s:        s,
		menu:     l,
		view:     viewport.New(60, 20),
		cursorOn: true,
	}, nil
}

func (s *shared) closeAll() {
	s.closeOnce.Do(func() {
		for _, seq := range s.seqs {
			seq.Close()
		}
		close(s.quit)
	})
}

func waitFrame(frames <-chan frameMsg, quit <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-frames:
			return f
		case <-quit:
			return nil
		}
	}
}

func blink() tea.Cmd {
	return tea.Tick(blinkInterval, func(time.Time) tea.Msg { return blinkMsg{} })
}

func (m model) Init() tea.Cmd {
	m.enter(m.active)
	return tea.Batch(waitFrame(m.s.frames, m.s.quit), blink())
}

// enter signals viewport entry for section i.
func (m model) enter(i int) {
	if m.s.seqs[i].Enter() {
		m.deps.Player.Play(sound.Beep)
		m.deps.Log.Debug("section revealed", zap.String("section", m.sections[i].ID))
	}
}

func (m model) activate(i int) model {
	if i == m.active {
		return m
	}
	if m.deps.Policy == reveal.ResetOnExit {
		m.s.seqs[m.active].Exit()
		clear(m.s.typed[m.active])
	}
	m.active = i
	m.menu.Select(i)
	m.enter(i)
	m.view.GotoTop()
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.menu.SetSize(menuWidth, max(msg.Height-4, 5))
		m.view.Width = max(msg.Width-menuWidth-6, 20)
		m.view.Height = max(msg.Height-4, 5)
		return m, nil

	case frameMsg:
		m.heard(msg)
		return m, waitFrame(m.s.frames, m.s.quit)

	case blinkMsg:
		m.cursorOn = !m.cursorOn
		return m, blink()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.s.closeAll()
			return m, tea.Quit
		case "s":
			if m.deps.Player.Toggle() {
				m.status = "sound on"
			} else {
				m.status = "sound off"
			}
			return m, nil
		case "+", "=":
			m.deps.Player.SetVolume(m.deps.Player.Volume() + 0.1)
			m.status = fmt.Sprintf("volume %.0f%%", m.deps.Player.Volume()*100)
			return m, nil
		case "-":
			m.deps.Player.SetVolume(m.deps.Player.Volume() - 0.1)
			m.status = fmt.Sprintf("volume %.0f%%", m.deps.Player.Volume()*100)
			return m, nil
		case "tab":
			return m.activate((m.active + 1) % len(m.sections)), nil
		case "shift+tab":
			return m.activate((m.active + len(m.sections) - 1) % len(m.sections)), nil
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.view.SetContent(m.page())
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m.activate(m.menu.Index()), cmd
	}
	return m, nil
}

// heard plays a keystroke for every rune a frame adds.
func (m model) heard(msg frameMsg) {
	typed := m.s.typed[msg.section]
	if msg.frame.Index >= len(typed) {
		return
	}
	n := utf8.RuneCountInString(msg.frame.Shown)
	if n > typed[msg.frame.Index] {
		m.deps.Player.Play(sound.Keystroke)
	}
	typed[msg.frame.Index] = n
}

// terminalLines renders the reveal state of section i. The cursor sits on the
// stage being typed, or on the last started one once everything is shown.
func (m model) terminalLines(i int) string {
	states := m.s.seqs[i].State()
	cursorAt, revealing := -1, false
	for j, st := range states {
		if st.Revealing {
			cursorAt, revealing = j, true
			break
		}
		if st.Phase != reveal.Idle {
			cursorAt = j
		}
	}

	var b strings.Builder
	for j, st := range states {
		b.WriteString(m.theme.Prompt.Render(st.Shown))
		// Solid while typing, blinking when idle.
		if j == cursorAt && (revealing || m.cursorOn) {
			b.WriteString(m.theme.Cursor.Render(cursorGlyph))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) body(i int) string {
	wrap := max(m.view.Width-2, 20)
	if m.s.md == nil || m.s.mdWrap != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.deps.Style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			m.deps.Log.Warn("markdown renderer", zap.Error(err))
			return sectionMarkdown(m.deps.Content, m.sections[i].ID)
		}
		m.s.md, m.s.mdWrap = r, wrap
		clear(m.s.bodies)
	}
	if out, ok := m.s.bodies[i]; ok {
		return out
	}
	src := sectionMarkdown(m.deps.Content, m.sections[i].ID)
	out, err := m.s.md.Render(src)
	if err != nil {
		out = src
	}
	m.s.bodies[i] = out
	return out
}

func (m model) page() string {
	sec := m.sections[m.active]
	return m.theme.Title.Render(sec.Title) + "\n\n" + m.terminalLines(m.active) + "\n" + m.body(m.active)
}

func (m model) View() string {
	view := m.view
	view.SetContent(m.page())

	right := m.theme.Pane.Width(view.Width + 2).Render(view.View())
	left := m.menu.View()

	help := "↑/↓ sections • tab next • pgup/pgdn scroll • s sound • +/- volume • q quit"
	footer := m.theme.Help.Render(help)
	if m.status != "" {
		footer = m.theme.Status.Render(m.status) + "  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		footer,
	)
}

// Run shows the terminal view until the user quits.
func Run(deps Deps) error {
	m, err := newModel(deps)
	if err != nil {
		return err
	}
	defer m.s.closeAll()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
