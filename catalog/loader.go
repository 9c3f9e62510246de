package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPaths returns the canonical catalog locations relative to the server
// module root. Callers may pass these to Load.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "portals.json"),
		filepath.Join("..", "config", "portals.json"),
	}
}

// Load reads the first catalog file that exists among paths. A missing file
// is an error only when every candidate is absent.
func Load(paths ...string) (*Catalog, error) {
	tried := make([]string, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		data, err := os.ReadFile(trimmed)
		if err != nil {
			if os.IsNotExist(err) {
				tried = append(tried, trimmed)
				continue
			}
			return nil, fmt.Errorf("catalog: failed loading %s: %w", trimmed, err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("catalog: failed parsing %s: %w", trimmed, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("catalog: no catalog found at %s", strings.Join(tried, ", "))
}

// Parse decodes and validates catalog bytes.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolve returns the variant with the given name.
func (c *Catalog) Resolve(name string) (Variant, bool) {
	if c == nil {
		return Variant{}, false
	}
	name = strings.TrimSpace(name)
	for _, v := range c.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// Names lists the available variant names in file order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Variants))
	for _, v := range c.Variants {
		names = append(names, v.Name)
	}
	return names
}

func (c *Catalog) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("unsupported catalog version %d", c.Version)
	}
	if len(c.Variants) == 0 {
		return fmt.Errorf("catalog declares no variants")
	}
	seen := make(map[string]struct{}, len(c.Variants))
	for i, v := range c.Variants {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return fmt.Errorf("variant %d missing name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate variant %q", name)
		}
		seen[name] = struct{}{}
		if err := v.validate(); err != nil {
			return fmt.Errorf("variant %q: %w", name, err)
		}
	}
	return nil
}

func (v Variant) validate() error {
	if !finitePositive(v.BaseIntervalMS) {
		return fmt.Errorf("baseIntervalMs must be a positive number")
	}
	if v.JitterMS < 0 || math.IsNaN(v.JitterMS) || math.IsInf(v.JitterMS, 0) {
		return fmt.Errorf("jitterMs must be zero or a positive number")
	}
	if v.MaxActivePairs < 0 {
		return fmt.Errorf("maxActivePairs must not be negative")
	}
	for _, span := range []struct {
		name  string
		value float64
	}{
		{"spawningMs", v.SpawningMS},
		{"activeMs", v.ActiveMS},
		{"collapsingMs", v.CollapsingMS},
	} {
		if span.value != 0 && !finitePositive(span.value) {
			return fmt.Errorf("%s must be a positive number when set", span.name)
		}
	}
	if v.MinSeparation < 0 {
		return fmt.Errorf("minSeparation must not be negative")
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
