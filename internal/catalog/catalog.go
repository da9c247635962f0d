// Package catalog holds the static reference data (providers, platforms,
// tones, goals and phase labels) that requests and prompts are validated against.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ProviderInfo describes one AI provider and its model defaults
type ProviderInfo struct {
	Name          string `yaml:"name" json:"name"`
	Label         string `yaml:"label" json:"label"`
	DefaultModel  string `yaml:"default_model" json:"default_model"`
	ResearchModel string `yaml:"research_model" json:"research_model"`
	CritiqueModel string `yaml:"critique_model" json:"critique_model"`
	ImageModel    string `yaml:"image_model" json:"image_model"`
	VideoModel    string `yaml:"video_model" json:"video_model"`
	SpeechModel   string `yaml:"speech_model" json:"speech_model"`
	APIKeyURL     string `yaml:"api_key_url" json:"api_key_url"`
	BaseURL       string `yaml:"base_url" json:"base_url"`
	Grounding     bool   `yaml:"grounding" json:"grounding"`
}

// PlatformInfo describes a social platform's constraints and posting advice
type PlatformInfo struct {
	Name             string   `yaml:"name" json:"name"`
	MaxChars         int      `yaml:"max_chars" json:"max_chars"`
	BestFormats      []string `yaml:"best_formats" json:"best_formats"`
	AlgorithmTip     string   `yaml:"algorithm_tip" json:"algorithm_tip"`
	BestPostingTimes string   `yaml:"best_posting_times" json:"best_posting_times"`
}

// ToneInfo describes a writing tone
type ToneInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	BestFor     string `yaml:"best_for" json:"best_for"`
}

// GoalInfo describes a campaign goal
type GoalInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// StepInfo labels a pipeline phase for display
type StepInfo struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the parsed catalog.yaml document.
type Catalog struct {
	SchemaVersion string         `yaml:"schema_version" json:"schema_version"`
	Providers     []ProviderInfo `yaml:"providers" json:"providers"`
	Platforms     []PlatformInfo `yaml:"platforms" json:"platforms"`
	Tones         []ToneInfo     `yaml:"tones" json:"tones"`
	Goals         []GoalInfo     `yaml:"goals" json:"goals"`
	Steps         []StepInfo     `yaml:"steps" json:"steps"`

	providers map[string]ProviderInfo
	platforms map[string]PlatformInfo
	tones     map[string]ToneInfo
	goals     map[string]GoalInfo
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads and parses a catalog file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document with strict validation.
// Unknown YAML fields are rejected and names must be unique per section.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if c.SchemaVersion == "" {
		c.SchemaVersion = "v1"
	}
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("catalog missing required section: providers")
	}
	if len(c.Platforms) == 0 {
		return nil, fmt.Errorf("catalog missing required section: platforms")
	}

	c.providers = make(map[string]ProviderInfo, len(c.Providers))
	for _, p := range c.Providers {
		if err := register(c.providers, p.Name, p, "provider"); err != nil {
			return nil, err
		}
	}
	c.platforms = make(map[string]PlatformInfo, len(c.Platforms))
	for _, p := range c.Platforms {
		if err := register(c.platforms, p.Name, p, "platform"); err != nil {
			return nil, err
		}
	}
	c.tones = make(map[string]ToneInfo, len(c.Tones))
	for _, t := range c.Tones {
		if err := register(c.tones, t.Name, t, "tone"); err != nil {
			return nil, err
		}
	}
	c.goals = make(map[string]GoalInfo, len(c.Goals))
	for _, g := range c.Goals {
		if err := register(c.goals, g.Name, g, "goal"); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

func register[T any](m map[string]T, name string, v T, kind string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("catalog %s missing required field: name", kind)
	}
	if _, exists := m[key]; exists {
		return fmt.Errorf("%s already registered: %s", kind, name)
	}
	m[key] = v
	return nil
}

// Provider looks up a provider by name (case-insensitive).
func (c *Catalog) Provider(name string) (ProviderInfo, bool) {
	p, ok := c.providers[strings.ToLower(name)]
	return p, ok
}

// Platform looks up a platform by name (case-insensitive).
func (c *Catalog) Platform(name string) (PlatformInfo, bool) {
	p, ok := c.platforms[strings.ToLower(name)]
	return p, ok
}

// Tone looks up a tone by name (case-insensitive).
func (c *Catalog) Tone(name string) (ToneInfo, bool) {
	t, ok := c.tones[strings.ToLower(name)]
	return t, ok
}

// Goal looks up a campaign goal by name (case-insensitive).
func (c *Catalog) Goal(name string) (GoalInfo, bool) {
	g, ok := c.goals[strings.ToLower(name)]
	return g, ok
}

// PlatformNames returns all platform names sorted for deterministic output.
func (c *Catalog) PlatformNames() []string {
	names := make([]string, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
