package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/reveal"
)

// revealStep is the client form of a stage, with durations in milliseconds.
type revealStep struct {
	Key         string `json:"key"`
	Text        string `json:"text"`
	CharDelayMS int64  `json:"char_delay_ms"`
	PauseMS     int64  `json:"pause_ms"`
}

func revealPlan(stages []reveal.Stage) string {
	steps := make([]revealStep, len(stages))
	for i, st := range stages {
		steps[i] = revealStep{
			Key:         st.Key,
			Text:        st.Text,
			CharDelayMS: st.CharDelay.Milliseconds(),
			PauseMS:     st.Pause.Milliseconds(),
		}
	}
	b, _ := json.Marshal(steps)
	return string(b)
}

// pageData is the view model of the whole document.
type pageData struct {
	P      *content.Portfolio
	Policy string
	// Static is set by the export, which has no server behind the page.
	Static bool
	// ResumeName is the file the static page links for download.
	ResumeName string
	FormURL    string
	Year       int
}

// sectionData is the view model of one section template.
type sectionData struct {
	Page    *pageData
	P       *content.Portfolio
	Section content.Section
	Plan    string
}

func (s *Server) page(static bool) *pageData {
	_, resume := s.ResumeFile()
	return &pageData{
		P:          s.content.Get(),
		Policy:     s.cfg.RevealPolicy.String(),
		Static:     static,
		ResumeName: resume,
		FormURL:    s.cfg.FormURL(),
		Year:       time.Now().Year(),
	}
}

func (p *pageData) section(id string) sectionData {
	sec, _ := p.P.Section(id)
	return sectionData{Page: p, P: p.P, Section: sec, Plan: revealPlan(sec.RevealStages())}
}

var md = goldmark.New()

var templateFuncs = template.FuncMap{
	"section": func(p *pageData, id string) sectionData { return p.section(id) },
	"hasSection": func(p *pageData, id string) bool {
		_, ok := p.P.Section(id)
		return ok
	},
	"markdown": func(src string) template.HTML {
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(src))
		}
		return template.HTML(buf.String())
	},
	"join": strings.Join,
	"linkKey": func(p content.Project, kind string) string {
		return p.Slug() + "/" + kind
	},
	"more": func(list []string, n int) bool { return len(list) > n },
	"head": func(list []string, n int) []string {
		if len(list) <= n {
			return list
		}
		return list[:n]
	},
	"tail": func(list []string, n int) []string {
		if len(list) <= n {
			return nil
		}
		return list[n:]
	},
	"minus": func(a, b int) int { return a - b },
	// emptyForm is the data of a blank contact form.
	"emptyForm": func() map[string]any { return map[string]any{} },
}
