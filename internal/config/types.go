package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// File represents the top-level YAML pipeline definition.
type File struct {
	Version  int          `yaml:"version" json:"version"`
	Settings Settings     `yaml:"settings" json:"settings"`
	Filters  []FilterSpec `yaml:"filters" json:"filters"`
}

// Settings contains process-wide settings. Each one can be overridden
// from the environment.
type Settings struct {
	Listen          string `yaml:"listen" json:"listen" env:"FILTERTOOLS_LISTEN"`
	Target          string `yaml:"target" json:"target" env:"FILTERTOOLS_TARGET"`
	AdminAddr       string `yaml:"admin_addr" json:"admin_addr" env:"FILTERTOOLS_ADMIN_ADDR"`
	LogDir          string `yaml:"log_dir" json:"log_dir" env:"FILTERTOOLS_LOG_DIR"`
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"FILTERTOOLS_SHUTDOWN_TIMEOUT"`
}

// FilterSpec is one entry of the pipeline.
type FilterSpec struct {
	Name   string `yaml:"name" json:"name"`
	Kind   string `yaml:"kind" json:"kind"`
	When   *Match `yaml:"when,omitempty" json:"when,omitempty"`
	Params Params `yaml:"params,omitempty" json:"params,omitempty"`
}

// Match specifies the conditions a request must meet for a filter to run.
// All conditions that are set must hold.
type Match struct {
	Method     string                `yaml:"method,omitempty" json:"method,omitempty"`
	Path       string                `yaml:"path,omitempty" json:"path,omitempty"`
	PathPrefix string                `yaml:"path_prefix,omitempty" json:"path_prefix,omitempty"`
	PathRegex  string                `yaml:"path_regex,omitempty" json:"path_regex,omitempty"`
	Host       string                `yaml:"host,omitempty" json:"host,omitempty"`
	Headers    map[string]ValueMatch `yaml:"headers,omitempty" json:"headers,omitempty"`
	Query      map[string]string     `yaml:"query,omitempty" json:"query,omitempty"`
	Secrets    bool                  `yaml:"secrets,omitempty" json:"secrets,omitempty"`
	Rego       string                `yaml:"rego,omitempty" json:"rego,omitempty"`
	RegoFile   string                `yaml:"rego_file,omitempty" json:"rego_file,omitempty"`
	Negate     bool                  `yaml:"negate,omitempty" json:"negate,omitempty"`
}

// ValueMatch specifies a matching condition for a single value.
type ValueMatch struct {
	Exact string `yaml:"exact,omitempty" json:"exact,omitempty"`
	Regex string `yaml:"regex,omitempty" json:"regex,omitempty"`
}

// Params holds the opaque parameters handed to a filter's Init. Scalars
// are kept as written; sequences of scalars are joined with commas.
type Params map[string]string

func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}
	out := make(Params, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			out[key.Value] = val.Value
		case yaml.SequenceNode:
			items := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: param %q: only scalars are allowed in lists", item.Line, key.Value)
				}
				items = append(items, item.Value)
			}
			out[key.Value] = strings.Join(items, ",")
		default:
			return fmt.Errorf("line %d: param %q must be a scalar or a list", val.Line, key.Value)
		}
	}
	*p = out
	return nil
}
