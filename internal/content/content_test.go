package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/termfolio/internal/reveal"
)

const minimalYAML = `
personal:
  name: Ada Lovelace
  title: Analyst
  email: ada@example.com
sections:
  - id: home
    title: Home
    stages:
      - {key: prompt, text: "$ whoami", char_delay: 80ms, pause: 500ms}
      - {key: blank, text: ""}
`

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	require.NotNil(t, p)
	assert.Equal(t, "Nikolai Tennant", p.Personal.Name)
	assert.NotEmpty(t, p.Projects)

	var ids []string
	for _, s := range p.OrderedSections() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, SectionIDs, ids, "every anchor is present in page order")

	require.NoError(t, ValidateSchema(DefaultYAML()))
}

func TestParse_Minimal(t *testing.T) {
	p, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	home, ok := p.Section("home")
	require.True(t, ok)
	want := []reveal.Stage{
		{Key: "prompt", Text: "$ whoami", CharDelay: 80 * time.Millisecond, Pause: 500 * time.Millisecond},
		{Key: "blank"},
	}
	if diff := cmp.Diff(want, home.RevealStages()); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}

	_, ok = p.Section("skills")
	assert.False(t, ok)
	assert.Len(t, p.OrderedSections(), 1)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "bad email",
			mutate:  func(s string) string { return strings.Replace(s, "ada@example.com", "not-an-email", 1) },
			wantSub: "Email",
		},
		{
			name:    "unknown section",
			mutate:  func(s string) string { return strings.Replace(s, "id: home", "id: blog", 1) },
			wantSub: "ID",
		},
		{
			name: "duplicate section",
			mutate: func(s string) string {
				return s + "  - id: home\n    title: Again\n"
			},
			wantSub: "Sections",
		},
		{
			name:    "duplicate stage key",
			mutate:  func(s string) string { return strings.Replace(s, "key: blank", "key: prompt", 1) },
			wantSub: "Stages",
		},
		{
			name:    "text without delay",
			mutate:  func(s string) string { return strings.Replace(s, "char_delay: 80ms, ", "", 1) },
			wantSub: "CharDelay",
		},
		{
			name:    "unknown field",
			mutate:  func(s string) string { return strings.Replace(s, "title: Analyst", "title: Analyst\n  twitter: ada", 1) },
			wantSub: "twitter",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(minimalYAML)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestValidate_DuplicateStageKeyInDefault(t *testing.T) {
	p, err := Parse(DefaultYAML())
	require.NoError(t, err)
	for i := range p.Sections {
		if p.Sections[i].ID == "home" {
			p.Sections[i].Stages = append(p.Sections[i].Stages, p.Sections[i].Stages[0])
		}
	}
	err = Validate(p)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "unique")
}

func TestValidateSchema_ReportsPaths(t *testing.T) {
	doc := strings.Replace(minimalYAML, "title: Home", "title: Home\n    colour: green", 1)
	err := ValidateSchema([]byte(doc))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	require.NotEmpty(t, se.Errors)
	assert.Contains(t, se.Error(), "sections.0")

	assert.NoError(t, ValidateSchema([]byte(minimalYAML)))
}

func TestLinks(t *testing.T) {
	p := Default()
	links := p.Links()

	keys := map[string]string{}
	for _, l := range links {
		keys[l.Key] = l.URL
	}
	assert.Equal(t, "https://github.com/nikolaitennant/rag-scholar-ai", keys["rag-scholar-ai/code"])
	assert.Contains(t, keys, "timeflies-aging-clock-for-drosophila/preprint")
	assert.Equal(t, "/resume", keys[ResumeLinkKey])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "senid-cell-senescence-identification", Slugify("SenID - Cell Senescence Identification"))
	assert.Equal(t, "a-b", Slugify("  A // B  "))
	assert.Equal(t, "", Slugify("---"))
}

func TestBadges(t *testing.T) {
	assert.False(t, ProjectBadges{}.Any())
	b := ProjectBadges{Collaboration: "NSF"}
	assert.True(t, b.IsCollaboration())
	assert.True(t, b.Any())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Personal.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	p, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Same(t, Default(), p)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	initial, err := Load(path)
	require.NoError(t, err)
	holder := NewHolder(initial)

	w := NewWatcher(path, holder, nil)
	w.debounce = 10 * time.Millisecond
	var hooked atomic.Int32
	w.OnReload = func(*Portfolio) { hooked.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-errc)
	}()

	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)

	broken := strings.Replace(minimalYAML, "ada@example.com", "broken", 1)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "ada@example.com", holder.Get().Personal.Email, "invalid edits keep the old content")

	updated := strings.Replace(minimalYAML, "Ada Lovelace", "Ada King", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		return holder.Get().Personal.Name == "Ada King"
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, w.Reloads(), int64(1))
	require.Eventually(t, func() bool { return hooked.Load() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestWatcher_RunWaitsForInflightReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	initial, err := Load(path)
	require.NoError(t, err)
	w := NewWatcher(path, NewHolder(initial), nil)
	w.debounce = 10 * time.Millisecond

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	w.OnReload = func(*Portfolio) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	updated := strings.Replace(minimalYAML, "Ada Lovelace", "Ada King", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not start")
	}

	cancel()
	select {
	case <-errc:
		t.Fatal("Run returned while a reload was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
