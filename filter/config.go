package filter

import "sort"

// Config is the opaque key-value configuration a host hands to Init.
// Composite filters pass it unmodified to every wrapped component.
type Config interface {
	// FilterName returns the name the host registered the filter under.
	FilterName() string

	// Param returns the named parameter.
	Param(name string) (string, bool)

	// ParamNames returns the names of all parameters in sorted order.
	ParamNames() []string
}

// MapConfig is a Config backed by a map.
type MapConfig struct {
	Name   string
	Params map[string]string
}

// NewMapConfig creates a MapConfig. params may be nil.
func NewMapConfig(name string, params map[string]string) *MapConfig {
	return &MapConfig{Name: name, Params: params}
}

func (c *MapConfig) FilterName() string { return c.Name }

func (c *MapConfig) Param(name string) (string, bool) {
	v, ok := c.Params[name]
	return v, ok
}

func (c *MapConfig) ParamNames() []string {
	names := make([]string, 0, len(c.Params))
	for k := range c.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EmptyConfig has no name and no parameters.
var EmptyConfig Config = &MapConfig{}
