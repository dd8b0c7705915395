package tui

import "github.com/Zachkp/termfolio/internal/reveal"

// frameMsg carries a sequencer frame of section.
type frameMsg struct {
	section int
	frame   reveal.Frame
}

type blinkMsg struct{}
