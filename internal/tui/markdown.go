package tui

import (
	"fmt"
	"strings"

	"github.com/Zachkp/termfolio/internal/content"
)

// sectionMarkdown is the body shown under a section's terminal lines.
func sectionMarkdown(p *content.Portfolio, id string) string {
	var b strings.Builder
	switch id {
	case "home":
		fmt.Fprintf(&b, "# %s\n\n**%s**\n\n", p.Personal.Name, p.Personal.Title)
		if p.Personal.Location != "" {
			fmt.Fprintf(&b, "%s\n", p.Personal.Location)
		}
	case "about":
		fmt.Fprintf(&b, "%s\n", strings.TrimSpace(p.Personal.Bio))
		if p.Personal.Citizenship != "" {
			fmt.Fprintf(&b, "\n_%s_\n", p.Personal.Citizenship)
		}
		if len(p.Experience) > 0 {
			b.WriteString("\n## Experience\n")
			for _, e := range p.Experience {
				fmt.Fprintf(&b, "\n### %s\n%s", e.Title, e.Employer)
				if e.Location != "" {
					fmt.Fprintf(&b, ", %s", e.Location)
				}
				fmt.Fprintf(&b, " (%s)\n\n%s\n", e.Period, e.Description)
				if len(e.Technologies) > 0 {
					fmt.Fprintf(&b, "\n`%s`\n", strings.Join(e.Technologies, "` `"))
				}
			}
		}
		if len(p.Education) > 0 {
			b.WriteString("\n## Education\n")
			for _, e := range p.Education {
				fmt.Fprintf(&b, "\n### %s\n%s (%s)\n", e.Degree, e.Institution, e.Period)
				if e.GPA != "" {
					fmt.Fprintf(&b, "\nGPA %s\n", e.GPA)
				}
				bullets(&b, e.Courses)
				bullets(&b, e.Achievements)
			}
		}
		if len(p.Interests) > 0 {
			fmt.Fprintf(&b, "\n## Interests\n\n%s\n", strings.Join(p.Interests, ", "))
		}
	case "publications":
		for _, pub := range p.Publications {
			fmt.Fprintf(&b, "\n## %s\n\n%s\n\n", pub.Title, strings.Join(pub.Authors, ", "))
			if pub.Journal != "" || pub.Status != "" {
				fmt.Fprintf(&b, "_%s_ %s\n\n", pub.Journal, pub.Status)
			}
			fmt.Fprintf(&b, "%s\n", pub.Description)
			bullets(&b, pub.KeyFindings)
		}
	case "projects":
		for _, pr := range p.Projects {
			fmt.Fprintf(&b, "\n## %s\n\n", pr.Title)
			if pr.Category != "" {
				fmt.Fprintf(&b, "_%s_\n\n", pr.Category)
			}
			for _, badge := range []string{pr.Badges.Achievement, pr.Badges.PublicationStatus, pr.Badges.Collaboration} {
				if badge != "" {
					fmt.Fprintf(&b, "**[%s]** ", badge)
				}
			}
			if pr.Badges.Any() {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "%s\n", pr.Description)
			bullets(&b, pr.Features)
			if len(pr.Technologies) > 0 {
				fmt.Fprintf(&b, "\n`%s`\n", strings.Join(pr.Technologies, "` `"))
			}
			for _, l := range []struct{ label, url string }{
				{"code", pr.Links.Code}, {"demo", pr.Links.Demo}, {"preprint", pr.Links.Preprint},
			} {
				if l.url != "" {
					fmt.Fprintf(&b, "\n%s: %s\n", l.label, l.url)
				}
			}
		}
	case "skills":
		for _, s := range p.Skills {
			fmt.Fprintf(&b, "\n**%s**: %s\n", s.Name, strings.Join(s.Skills, ", "))
		}
	case "contact":
		fmt.Fprintf(&b, "- email: %s\n", p.Personal.Email)
		if p.Personal.Phone != "" {
			fmt.Fprintf(&b, "- phone: %s\n", p.Personal.Phone)
		}
		if p.Personal.Links.GitHub != "" {
			fmt.Fprintf(&b, "- github: %s\n", p.Personal.Links.GitHub)
		}
		if p.Personal.Links.LinkedIn != "" {
			fmt.Fprintf(&b, "- linkedin: %s\n", p.Personal.Links.LinkedIn)
		}
		if p.Personal.Links.Website != "" {
			fmt.Fprintf(&b, "- website: %s\n", p.Personal.Links.Website)
		}
	case "resume":
		name := p.Resume.Filename
		if name == "" {
			name = p.Resume.Path
		}
		if name == "" {
			b.WriteString("No resume is published.\n")
		} else {
			fmt.Fprintf(&b, "Download **%s** from the web site at `/resume`.\n", name)
		}
	}
	return b.String()
}

func bullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
