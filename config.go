package issuegraph

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the optional issuegraph configuration file.
type Config struct {
	Palette Palette `yaml:"palette"`
	// NewDays and StaleDays bound the age-based fills. A new_days of 0
	// turns the recent fill off.
	NewDays   int         `yaml:"new_days"`
	StaleDays int         `yaml:"stale_days"`
	Fetch     FetchConfig `yaml:"fetch"`
}

// Palette holds Graphviz colour names.
type Palette struct {
	Epic        string `yaml:"epic"`
	EpicCluster string `yaml:"epic_cluster"`
	NewIssues   string `yaml:"new_issues"`
	InProgress  string `yaml:"in_progress"`
	Recent      string `yaml:"recent"`
	Stale       string `yaml:"stale"`
	Default     string `yaml:"default"`
	Blocking    string `yaml:"blocking"`
	// Emphasis outlines issues missing an estimate or an assignee.
	Emphasis      string `yaml:"emphasis"`
	EmphasisWidth int    `yaml:"emphasis_width"`
}

// FetchConfig maps GitHub issue data onto the issues CSV columns.
type FetchConfig struct {
	// TeamLabels maps a team to a comma-separated list of labels.
	TeamLabels map[string]string `yaml:"team_labels"`
	// PersonToTeam narrows a multi-team issue to its assignee's team.
	PersonToTeam map[string]string `yaml:"person_to_team"`
	// PipelineLabels maps a label to a pipeline name.
	PipelineLabels      map[string]string `yaml:"pipeline_labels"`
	EstimateLabelPrefix string            `yaml:"estimate_label_prefix"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := &Config{NewDays: 14, StaleDays: 365}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	p := &c.Palette
	setDefault(&p.Epic, "goldenrod1")
	setDefault(&p.EpicCluster, "cornsilk")
	setDefault(&p.NewIssues, "chartreuse")
	setDefault(&p.InProgress, "skyblue")
	setDefault(&p.Recent, "aquamarine")
	setDefault(&p.Stale, "gray93")
	setDefault(&p.Default, "white")
	setDefault(&p.Blocking, "red")
	setDefault(&p.Emphasis, "darkmagenta")
	if p.EmphasisWidth == 0 {
		p.EmphasisWidth = 3
	}
	setDefault(&c.Fetch.EstimateLabelPrefix, "estimate:")
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}

func (c *Config) Validate() error {
	if c.NewDays < 0 || c.StaleDays < 0 {
		return fmt.Errorf("new_days and stale_days must not be negative")
	}
	if c.NewDays >= c.StaleDays {
		return fmt.Errorf("new_days (%d) must be less than stale_days (%d)", c.NewDays, c.StaleDays)
	}
	if c.Palette.EmphasisWidth < 0 {
		return fmt.Errorf("emphasis_width must not be negative")
	}
	for person, team := range c.Fetch.PersonToTeam {
		if _, ok := c.Fetch.TeamLabels[team]; !ok {
			return fmt.Errorf("person_to_team: %s: unknown team %q", person, team)
		}
	}
	return nil
}

// LabelsToTeams inverts TeamLabels. Labels are lowercased.
func (f *FetchConfig) LabelsToTeams() map[string][]string {
	m := make(map[string][]string)
	for team, labels := range f.TeamLabels {
		for _, label := range strings.Split(labels, ",") {
			label = strings.ToLower(strings.TrimSpace(label))
			if label == "" {
				continue
			}
			m[label] = append(m[label], team)
		}
	}
	for _, teams := range m {
		slices.Sort(teams)
	}
	return m
}

// ParseConfig decodes a yaml configuration over the defaults. Keys absent
// from data keep their default; an explicit zero is kept.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the configuration at path. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}
