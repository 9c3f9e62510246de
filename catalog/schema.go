// Package catalog loads designer-authored portal tuning profiles from
// config/portals.json and resolves them by name.
package catalog

// Variant is one portal tuning profile. Zero-valued optional fields keep the
// world defaults when applied.
type Variant struct {
	Name           string  `json:"name" jsonschema:"title=Variant name,pattern=^[a-z0-9-]+$,minLength=1,description=Identifier selected at startup via WARP_PORTAL_VARIANT.,required"`
	Description    string  `json:"description,omitempty" jsonschema:"title=Description,description=Designer-facing summary of the tuning."`
	BaseIntervalMS float64 `json:"baseIntervalMs" jsonschema:"title=Spawn interval,minimum=1,description=Milliseconds between spawn attempts before jitter.,required"`
	JitterMS       float64 `json:"jitterMs,omitempty" jsonschema:"title=Spawn jitter,minimum=0,description=Uniform jitter in milliseconds applied around the base interval."`
	MaxActivePairs int     `json:"maxActivePairs,omitempty" jsonschema:"title=Pair budget,minimum=1,description=How many pairs may be open at once."`
	SpawningMS     float64 `json:"spawningMs,omitempty" jsonschema:"title=Spawning span,minimum=1,description=Milliseconds a pair spends materialising."`
	ActiveMS       float64 `json:"activeMs,omitempty" jsonschema:"title=Active budget,minimum=1,description=Total open milliseconds, inclusive of the spawning span."`
	CollapsingMS   float64 `json:"collapsingMs,omitempty" jsonschema:"title=Collapsing span,minimum=1,description=Milliseconds a pair spends winding down."`
	MinSeparation  int     `json:"minSeparation,omitempty" jsonschema:"title=Endpoint separation,minimum=0,description=Minimum Manhattan distance between a pair's endpoints."`
}

// Catalog represents the contents of config/portals.json. The struct is
// exported so tooling (e.g. schema generators) can reflect over the
// configuration contract shared with designers.
type Catalog struct {
	Version  int       `json:"version" jsonschema:"title=Format version,minimum=1,required"`
	Variants []Variant `json:"variants" jsonschema:"title=Variants,description=Portal tuning profiles selectable by name.,required"`
}
