package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile models an external rule table on disk.
type ruleFile struct {
	Rules []*Rule `yaml:"rules"`
}

// LoadFile reads and validates a YAML rule table. The file's top level is a
// single `rules:` sequence; rule order in the file is the tie-break order
// for equal priorities.
func LoadFile(path string) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	ruleSet, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return ruleSet, nil
}

// Load reads and validates a YAML rule table from a reader.
func Load(r io.Reader) ([]*Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	seen := make(map[string]bool, len(file.Rules))
	for _, rule := range file.Rules {
		if err := Validate(rule); err != nil {
			return nil, err
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate rule ID %s", rule.ID)
		}
		seen[rule.ID] = true
	}

	return file.Rules, nil
}
