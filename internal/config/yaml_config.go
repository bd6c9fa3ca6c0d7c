package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Reference data that is easier to manage in YAML than env vars.
type YAMLConfig struct {
	Tags        []TagConfig        `yaml:"tags"`
	Ingredients []IngredientConfig `yaml:"ingredients"`
}

// TagConfig defines a recipe tag.
type TagConfig struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// IngredientConfig defines a catalog ingredient.
type IngredientConfig struct {
	Name            string `yaml:"name"`
	MeasurementUnit string `yaml:"measurement_unit"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFile loads reference data from an explicit path.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetTagBySlug finds a tag by its slug.
func (c *YAMLConfig) GetTagBySlug(slug string) *TagConfig {
	if c == nil {
		return nil
	}
	for i := range c.Tags {
		if c.Tags[i].Slug == slug {
			return &c.Tags[i]
		}
	}
	return nil
}
