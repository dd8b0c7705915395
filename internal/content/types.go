// Package content holds the portfolio data rendered by every front end: the
// web server, the terminal view and the static export.
package content

import (
	"strings"
	"time"
	"unicode"

	"github.com/Zachkp/termfolio/internal/reveal"
)

// SectionIDs lists the page anchors in page order.
var SectionIDs = []string{"home", "about", "publications", "projects", "skills", "contact", "resume"}

type Portfolio struct {
	Personal     PersonalInfo      `yaml:"personal" json:"personal" validate:"required"`
	Experience   []ExperienceEntry `yaml:"experience" json:"experience" validate:"dive"`
	Education    []EducationEntry  `yaml:"education" json:"education" validate:"dive"`
	Projects     []Project         `yaml:"projects" json:"projects" validate:"dive"`
	Publications []Publication     `yaml:"publications" json:"publications" validate:"dive"`
	Skills       []SkillCategory   `yaml:"skills" json:"skills" validate:"dive"`
	Interests    []string          `yaml:"interests" json:"interests,omitempty"`
	Resume       Resume            `yaml:"resume" json:"resume"`
	Sections     []Section         `yaml:"sections" json:"sections" validate:"required,min=1,unique=ID,dive"`
}

type PersonalInfo struct {
	Name        string        `yaml:"name" json:"name" validate:"required"`
	Title       string        `yaml:"title" json:"title" validate:"required"`
	Subtitle    string        `yaml:"subtitle" json:"subtitle"`
	Location    string        `yaml:"location" json:"location"`
	Email       string        `yaml:"email" json:"email" validate:"required,email"`
	Phone       string        `yaml:"phone" json:"phone,omitempty"`
	Links       PersonalLinks `yaml:"links" json:"links"`
	Bio         string        `yaml:"bio" json:"bio"`
	Citizenship string        `yaml:"citizenship" json:"citizenship,omitempty"`
}

type PersonalLinks struct {
	GitHub   string `yaml:"github" json:"github,omitempty" validate:"omitempty,url"`
	LinkedIn string `yaml:"linkedin" json:"linkedin,omitempty" validate:"omitempty,url"`
	Website  string `yaml:"website" json:"website,omitempty" validate:"omitempty,url"`
}

type ExperienceEntry struct {
	Title        string   `yaml:"title" json:"title" validate:"required"`
	Employer     string   `yaml:"employer" json:"employer" validate:"required"`
	Location     string   `yaml:"location" json:"location"`
	Period       string   `yaml:"period" json:"period"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies" json:"technologies,omitempty"`
}

type EducationEntry struct {
	Degree       string   `yaml:"degree" json:"degree" validate:"required"`
	Institution  string   `yaml:"institution" json:"institution" validate:"required"`
	Location     string   `yaml:"location" json:"location"`
	Period       string   `yaml:"period" json:"period"`
	GPA          string   `yaml:"gpa" json:"gpa,omitempty"`
	Courses      []string `yaml:"courses" json:"courses,omitempty"`
	Achievements []string `yaml:"achievements" json:"achievements,omitempty"`
}

type Project struct {
	Title           string        `yaml:"title" json:"title" validate:"required"`
	Description     string        `yaml:"description" json:"description"`
	LongDescription string        `yaml:"long_description" json:"long_description,omitempty"`
	Category        string        `yaml:"category" json:"category"`
	Technologies    []string      `yaml:"technologies" json:"technologies,omitempty"`
	Features        []string      `yaml:"features" json:"features,omitempty"`
	Impact          string        `yaml:"impact" json:"impact,omitempty"`
	Timeline        string        `yaml:"timeline" json:"timeline,omitempty"`
	Links           ProjectLinks  `yaml:"links" json:"links"`
	Badges          ProjectBadges `yaml:"badges" json:"badges"`
}

// Slug is the URL-safe form of the title used in link keys.
func (p Project) Slug() string { return Slugify(p.Title) }

type ProjectLinks struct {
	Code     string `yaml:"code" json:"code,omitempty" validate:"omitempty,url"`
	Demo     string `yaml:"demo" json:"demo,omitempty" validate:"omitempty,url"`
	Preprint string `yaml:"preprint" json:"preprint,omitempty" validate:"omitempty,url"`
}

type ProjectBadges struct {
	Achievement       string `yaml:"achievement" json:"achievement,omitempty"`
	PublicationStatus string `yaml:"publication_status" json:"publication_status,omitempty"`
	Collaboration     string `yaml:"collaboration" json:"collaboration,omitempty"`
}

// IsCollaboration reports whether the project carries a collaboration note.
func (b ProjectBadges) IsCollaboration() bool { return b.Collaboration != "" }

// Any reports whether at least one badge is set.
func (b ProjectBadges) Any() bool {
	return b.Achievement != "" || b.PublicationStatus != "" || b.IsCollaboration()
}

type Publication struct {
	Title        string   `yaml:"title" json:"title" validate:"required"`
	Authors      []string `yaml:"authors" json:"authors" validate:"required,min=1"`
	Status       string   `yaml:"status" json:"status"`
	Journal      string   `yaml:"journal" json:"journal"`
	Description  string   `yaml:"description" json:"description"`
	KeyFindings  []string `yaml:"key_findings" json:"key_findings,omitempty"`
	Technologies []string `yaml:"technologies" json:"technologies,omitempty"`
}

type SkillCategory struct {
	Name   string   `yaml:"name" json:"name" validate:"required"`
	Skills []string `yaml:"skills" json:"skills" validate:"required,min=1"`
}

type Resume struct {
	Path     string `yaml:"path" json:"path"`
	Filename string `yaml:"filename" json:"filename"`
}

// Section is one anchor-addressable part of the page and its reveal script.
type Section struct {
	ID     string      `yaml:"id" json:"id" validate:"required,oneof=home about publications projects skills contact resume"`
	Title  string      `yaml:"title" json:"title" validate:"required"`
	Stages []StageSpec `yaml:"stages" json:"stages" validate:"unique=Key,dive"`
}

// StageSpec is the file form of a reveal stage.
type StageSpec struct {
	Key       string        `yaml:"key" json:"key" validate:"required"`
	Text      string        `yaml:"text" json:"text"`
	CharDelay time.Duration `yaml:"char_delay" json:"char_delay" validate:"required_with=Text,gte=0"`
	Pause     time.Duration `yaml:"pause" json:"pause" validate:"gte=0"`
}

// RevealStages converts the section script for the sequencer.
func (s Section) RevealStages() []reveal.Stage {
	out := make([]reveal.Stage, len(s.Stages))
	for i, st := range s.Stages {
		out[i] = reveal.Stage{Key: st.Key, Text: st.Text, CharDelay: st.CharDelay, Pause: st.Pause}
	}
	return out
}

// Stage returns the stage with the given key.
func (s Section) Stage(key string) (StageSpec, bool) {
	for _, st := range s.Stages {
		if st.Key == key {
			return st, true
		}
	}
	return StageSpec{}, false
}

// Section looks a section up by anchor id.
func (p *Portfolio) Section(id string) (Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// OrderedSections returns the configured sections in page order.
func (p *Portfolio) OrderedSections() []Section {
	out := make([]Section, 0, len(p.Sections))
	for _, id := range SectionIDs {
		if s, ok := p.Section(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// Link is an outbound destination tracked by key.
type Link struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Label string `json:"label"`
}

// ResumeLinkKey is the key under which resume downloads are counted.
const ResumeLinkKey = "resume"

// Links lists every project link plus the resume download.
func (p *Portfolio) Links() []Link {
	var out []Link
	for _, pr := range p.Projects {
		slug := pr.Slug()
		for _, l := range []struct{ kind, url string }{
			{"code", pr.Links.Code},
			{"demo", pr.Links.Demo},
			{"preprint", pr.Links.Preprint},
		} {
			if l.url == "" {
				continue
			}
			out = append(out, Link{Key: slug + "/" + l.kind, URL: l.url, Label: pr.Title + " (" + l.kind + ")"})
		}
	}
	if p.Resume.Path != "" {
		out = append(out, Link{Key: ResumeLinkKey, URL: "/resume", Label: "Resume download"})
	}
	return out
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
