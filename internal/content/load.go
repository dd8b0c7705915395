package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed portfolio.yaml
var defaultYAML []byte

var (
	defaultOnce      sync.Once
	defaultPortfolio *Portfolio
)

// ErrInvalid wraps every content validation failure.
var ErrInvalid = errors.New("invalid portfolio content")

// DefaultYAML returns the embedded content file.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}

// Default returns the embedded portfolio. It panics if the embedded file is
// broken, which the package tests rule out.
func Default() *Portfolio {
	defaultOnce.Do(func() {
		p, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("content: embedded portfolio: %v", err))
		}
		defaultPortfolio = p
	})
	return defaultPortfolio
}

// Load reads and validates the content file at path.
func Load(path string) (*Portfolio, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return p, nil
}

// LoadOrDefault loads path, or returns the embedded portfolio for an empty path.
func LoadOrDefault(path string) (*Portfolio, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes a YAML document and validates it.
func Parse(raw []byte) (*Portfolio, error) {
	var p Portfolio
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints on p.
func Validate(p *Portfolio) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
