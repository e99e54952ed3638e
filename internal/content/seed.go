package content

import (
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Items []Item `yaml:"items"`
}

// LoadSeed reads content items from a YAML file.
func LoadSeed(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return sf.Items, nil
}
