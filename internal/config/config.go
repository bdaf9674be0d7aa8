package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from archmirror.yml.
type ProjectConfig struct {
	MirrorDir         string   `yaml:"mirrorDir,omitempty"`
	MaxDepth          int      `yaml:"maxDepth,omitempty"`
	DetailLevel       string   `yaml:"detailLevel,omitempty"`
	Languages         []string `yaml:"languages,omitempty"`
	ExcludePatterns   []string `yaml:"excludePatterns,omitempty"`
	AdditionalIgnores []string `yaml:"additionalIgnores,omitempty"`
	Verbose           bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read archmirror.yml or archmirror.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"archmirror.yml", "archmirror.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
