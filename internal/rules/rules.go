// Package rules owns the loaded, immutable configuration governing which
// risk categories run and with what parameters. A Config is loaded once for
// a run; Reload produces a new instance and never mutates consumers.
package rules

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/avendel/reqstress/internal/model"
)

//go:embed schema.json default_rules.json
var embedded embed.FS

// ConfigError wraps any failure to load or validate a rules source. It is
// fatal: analysis must not start with a broken ruleset.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("rules config: %v", e.Err)
	}
	return fmt.Sprintf("rules config %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Rule is one named rule inside a category. Which fields are populated
// depends on the rule kind: keyword lists, leading-phrase patterns,
// trigger/guard pairs, contradictory pairs, or a similarity threshold.
type Rule struct {
	Keywords            []string   `json:"keywords,omitempty" yaml:"keywords"`
	Patterns            []string   `json:"patterns,omitempty" yaml:"patterns"`
	Triggers            []string   `json:"triggers,omitempty" yaml:"triggers"`
	RequiredWith        []string   `json:"required_with,omitempty" yaml:"required_with"`
	EscalateTerms       []string   `json:"escalate_terms,omitempty" yaml:"escalate_terms"`
	Pairs               [][]string `json:"pairs,omitempty" yaml:"pairs"`
	SimilarityThreshold float64    `json:"similarity_threshold,omitempty" yaml:"similarity_threshold"`

	// Severity overrides the category default for risks raised by this rule.
	Severity    string `json:"severity,omitempty" yaml:"severity"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// CategoryConfig is the per-category section of the rules document.
type CategoryConfig struct {
	Enabled     bool            `json:"enabled" yaml:"enabled"`
	Severity    string          `json:"severity,omitempty" yaml:"severity"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Rules       map[string]Rule `json:"rules,omitempty" yaml:"rules"`
}

// GlobalSettings is the document-wide settings bag.
type GlobalSettings struct {
	CaseSensitive        bool `json:"case_sensitive" yaml:"case_sensitive"`
	IgnoreComments       bool `json:"ignore_comments" yaml:"ignore_comments"`
	MinRequirementLength int  `json:"min_requirement_length" yaml:"min_requirement_length"`
	MaxSimilarityCheck   int  `json:"max_similarity_check" yaml:"max_similarity_check"`
}

type document struct {
	Version         string                    `json:"version,omitempty" yaml:"version"`
	Detectors       map[string]CategoryConfig `json:"detectors" yaml:"detectors"`
	GlobalSettings  GlobalSettings            `json:"global_settings" yaml:"global_settings"`
	SeverityMapping map[string]int            `json:"severity_mapping,omitempty" yaml:"severity_mapping"`
}

// Config is a loaded rules document. Treat it as read-only: Reload returns a
// fresh instance rather than mutating this one.
type Config struct {
	source string
	doc    document
}

// Default returns the built-in ruleset shipped with the binary.
func Default() *Config {
	raw, err := embedded.ReadFile("default_rules.json")
	if err != nil {
		// The file is compiled in; failure here is a build defect.
		panic(fmt.Sprintf("rules: read embedded default ruleset: %v", err))
	}
	cfg, err := Parse(raw, "builtin")
	if err != nil {
		panic(fmt.Sprintf("rules: embedded default ruleset invalid: %v", err))
	}
	return cfg
}

// Load reads and validates a rules file. JSON and YAML sources are accepted,
// chosen by extension. Failures are reported as *ConfigError.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// Normalize YAML to JSON so the same schema validates both.
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, &ConfigError{Source: path, Err: fmt.Errorf("invalid YAML: %w", err)}
		}
		raw, err = json.Marshal(tree)
		if err != nil {
			return nil, &ConfigError{Source: path, Err: err}
		}
	}

	cfg, err := Parse(raw, path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse validates a JSON rules document against the embedded schema and
// returns the loaded Config. source is used for error attribution only.
func Parse(raw []byte, source string) (*Config, error) {
	schemaRaw, err := embedded.ReadFile("schema.json")
	if err != nil {
		return nil, &ConfigError{Source: source, Err: fmt.Errorf("read schema: %w", err)}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaRaw),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, &ConfigError{Source: source, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return nil, &ConfigError{Source: source, Err: fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	if len(doc.Detectors) == 0 {
		return nil, &ConfigError{Source: source, Err: fmt.Errorf("no detectors configured")}
	}

	return &Config{source: source, doc: doc}, nil
}

// Reload re-reads the original source and returns a new Config. The receiver
// is left untouched; a Config created from Parse or Default cannot be
// reloaded from disk and reloads to itself.
func (c *Config) Reload() (*Config, error) {
	if c.source == "" || c.source == "builtin" {
		return c, nil
	}
	if _, err := os.Stat(c.source); err != nil {
		return nil, &ConfigError{Source: c.source, Err: err}
	}
	return Load(c.source)
}

// Source returns the path the config was loaded from, or "builtin".
func (c *Config) Source() string { return c.source }

// Version returns the document version string, if any.
func (c *Config) Version() string { return c.doc.Version }

// Category returns the config section for a category name. ok is false when
// the category is not present in the document.
func (c *Config) Category(name string) (CategoryConfig, bool) {
	cc, ok := c.doc.Detectors[name]
	return cc, ok
}

// CategoryNames returns every category name present in the document.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.doc.Detectors))
	for name := range c.doc.Detectors {
		names = append(names, name)
	}
	return names
}

// IsEnabled reports whether a category is present and enabled.
func (c *Config) IsEnabled(name string) bool {
	cc, ok := c.doc.Detectors[name]
	return ok && cc.Enabled
}

// Rule returns the named rule within a category; the zero Rule when unset.
func (c *Config) Rule(category, rule string) Rule {
	cc, ok := c.doc.Detectors[category]
	if !ok {
		return Rule{}
	}
	return cc.Rules[rule]
}

// Globals returns the global settings bag.
func (c *Config) Globals() GlobalSettings { return c.doc.GlobalSettings }

// Severity resolves a severity name through the document's severity mapping
// first, then the built-in scale. Unknown names fall back to fallback.
func (c *Config) Severity(name string, fallback model.Severity) model.Severity {
	if name == "" {
		return fallback
	}
	if ord, ok := c.doc.SeverityMapping[strings.ToLower(name)]; ok {
		sev := model.Severity(ord)
		if sev.Valid() {
			return sev
		}
	}
	if sev, err := model.ParseSeverity(name); err == nil {
		return sev
	}
	return fallback
}

// CategorySeverity resolves the default severity for a category, falling
// back to Medium when unset, mirroring the detector workflow contract.
func (c *Config) CategorySeverity(name string) model.Severity {
	cc, ok := c.doc.Detectors[name]
	if !ok {
		return model.SeverityMedium
	}
	return c.Severity(cc.Severity, model.SeverityMedium)
}

// WithCategoryEnabled returns a copy of the config with one category toggled.
// The receiver is not modified; consumers holding it keep their view.
func (c *Config) WithCategoryEnabled(name string, enabled bool) (*Config, error) {
	cc, ok := c.doc.Detectors[name]
	if !ok {
		return nil, &ConfigError{Source: c.source, Err: fmt.Errorf("unknown category %q", name)}
	}
	out := &Config{source: c.source, doc: c.doc}
	out.doc.Detectors = make(map[string]CategoryConfig, len(c.doc.Detectors))
	for k, v := range c.doc.Detectors {
		out.doc.Detectors[k] = v
	}
	cc.Enabled = enabled
	out.doc.Detectors[name] = cc
	return out, nil
}

// MarshalJSON exposes the underlying document so shells can serve the live
// ruleset without reaching into internals.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.doc)
}
