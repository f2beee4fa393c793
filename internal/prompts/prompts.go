// Package prompts renders the LLM prompts used by the service. Defaults are
// embedded in the binary and any of them can be replaced by a file of the
// same name from an override Source.
package prompts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

//go:embed templates/*.tmpl
var defaults embed.FS

// Template file names, also used for overrides.
const (
	ClassifyFile    = "classify.tmpl"
	AcknowledgeFile = "acknowledge.tmpl"
	SystemFile      = "system.tmpl"
	LookupFile      = "lookup.tmpl"
)

var files = []string{ClassifyFile, AcknowledgeFile, SystemFile, LookupFile}

// Set holds the parsed prompt templates. It is read-only after Load.
type Set struct {
	templates map[string]*template.Template
}

type cityData struct {
	City string
}

// Source supplies override files by name. A missing override is reported
// with an error wrapping fs.ErrNotExist.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Location(name string) string
}

// Load parses the embedded defaults, replacing each with the file of the same
// name from src when it has one. A nil src uses the defaults only. An
// override that cannot be read or does not parse is an error.
func Load(ctx context.Context, src Source, log logger.Logger) (*Set, error) {
	set := &Set{templates: make(map[string]*template.Template, len(files))}

	for _, name := range files {
		text, source, err := read(ctx, src, name)
		if err != nil {
			return nil, err
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s from %s: %w", name, source, err)
		}
		set.templates[name] = tmpl

		if log != nil && source != "embedded" {
			log.Info("Loaded prompt override", logger.StringField("prompt", name), logger.StringField("path", source))
		}
	}

	return set, nil
}

// MustDefaults returns the embedded prompts. It panics if they do not parse.
func MustDefaults() *Set {
	set, err := Load(context.Background(), nil, nil)
	if err != nil {
		panic(err)
	}
	return set
}

func read(ctx context.Context, src Source, name string) (text, source string, err error) {
	if src != nil {
		data, err := src.Read(ctx, name)
		switch {
		case err == nil:
			return string(data), src.Location(name), nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", "", fmt.Errorf("read prompt override %s: %w", src.Location(name), err)
		}
	}

	data, err := defaults.ReadFile("templates/" + name)
	if err != nil {
		return "", "", fmt.Errorf("read embedded prompt %s: %w", name, err)
	}
	return string(data), "embedded", nil
}

func (s *Set) render(name, city string) (string, error) {
	var b strings.Builder
	if err := s.templates[name].Execute(&b, cityData{City: city}); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Classify asks whether city names exactly one city. The model is expected
// to answer "yes" or "no".
func (s *Set) Classify(city string) (string, error) {
	return s.render(ClassifyFile, city)
}

// Acknowledge asks for a short, city-specific acknowledgement without weather data.
func (s *Set) Acknowledge(city string) (string, error) {
	return s.render(AcknowledgeFile, city)
}

// System is the instruction for the weather lookup tool loop.
func (s *Set) System() (string, error) {
	return s.render(SystemFile, "")
}

// Lookup is the user turn that starts the weather lookup for city.
func (s *Set) Lookup(city string) (string, error) {
	return s.render(LookupFile, city)
}
