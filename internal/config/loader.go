package config

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/ilyakaznacheev/cleanenv"
)

// LoadFile reads a YAML pipeline file, applies environment overrides and
// validates the result.
func LoadFile(path string) (*File, error) {
	var f File
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		return nil, fmt.Errorf("reading pipeline file: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFileBytes parses YAML pipeline data, applies environment overrides
// and validates the result.
func LoadFileBytes(data []byte) (*File, error) {
	var f File
	if err := cleanenv.ParseYAML(bytes.NewReader(data), &f); err != nil {
		return nil, fmt.Errorf("parsing pipeline YAML: %w", err)
	}
	if err := cleanenv.ReadEnv(&f); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func validate(f *File) error {
	if f.Version != 1 {
		return fmt.Errorf("unsupported pipeline version: %d (expected 1)", f.Version)
	}

	seen := make(map[string]bool, len(f.Filters))
	for i, spec := range f.Filters {
		if spec.Name == "" {
			return fmt.Errorf("filter %d: name is required", i)
		}
		if seen[spec.Name] {
			return fmt.Errorf("filter %q: duplicate name", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Kind == "" {
			return fmt.Errorf("filter %q: kind is required", spec.Name)
		}
		if spec.When != nil {
			if err := validateMatch(spec.When); err != nil {
				return fmt.Errorf("filter %q: %w", spec.Name, err)
			}
		}
	}

	return nil
}

func validateMatch(m *Match) error {
	if m.PathRegex != "" {
		if _, err := regexp.Compile(m.PathRegex); err != nil {
			return fmt.Errorf("when.path_regex invalid: %w", err)
		}
	}
	for name, vm := range m.Headers {
		if vm.Regex != "" {
			if _, err := regexp.Compile(vm.Regex); err != nil {
				return fmt.Errorf("when.headers %q regex invalid: %w", name, err)
			}
		}
	}
	if m.Rego != "" && m.RegoFile != "" {
		return fmt.Errorf("when: rego and rego_file are mutually exclusive")
	}
	return nil
}
