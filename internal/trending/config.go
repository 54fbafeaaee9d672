package trending

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Section is one group of trending quantities sharing a unit, plotted and
// persisted together.
type Section struct {
	Name       string   `yaml:"name"`
	Units      string   `yaml:"units"`
	Quantities []string `yaml:"quantities"`
}

// Config lists the quantities to retrieve from the trending database.
type Config struct {
	Sections []Section `yaml:"sections"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trending: config load failed (%s): %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("trending: config parse failed: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("trending: config invalid: %w", err)
	}
	return &cfg, nil
}

// Section returns the named section.
func (c *Config) Section(name string) (Section, bool) {
	for _, s := range c.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func validateConfig(cfg *Config) error {
	if len(cfg.Sections) == 0 {
		return fmt.Errorf("one or more sections required")
	}
	for i, s := range cfg.Sections {
		if s.Name == "" {
			return fmt.Errorf("section[%d] missing name", i)
		}
		if s.Units == "" {
			return fmt.Errorf("section %q missing units", s.Name)
		}
		if len(s.Quantities) == 0 {
			return fmt.Errorf("section %q lists no quantities", s.Name)
		}
	}
	return nil
}
