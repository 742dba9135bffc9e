package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Category classifies an overlay by the kind of tooling it contributes.
// The category determines merge precedence: overlays are folded into the
// accumulator in category order, so a later category's primitive values win
// over an earlier category's when both touch the same key.
type Category string

const (
	// CategoryLanguage overlays install language runtimes and toolchains
	// (python, go, node). They merge first.
	CategoryLanguage Category = "language"

	// CategoryDatabase overlays add database services (postgres, redis).
	CategoryDatabase Category = "database"

	// CategoryObservability overlays add tracing/metrics/log tooling
	// (otel collector, grafana stacks).
	CategoryObservability Category = "observability"

	// CategoryCloud overlays add cloud provider CLIs and emulators
	// (aws, azure, localstack).
	CategoryCloud Category = "cloud"

	// CategoryDev overlays add general development conveniences
	// (dotfiles, docker-in-docker). They merge last.
	CategoryDev Category = "dev"
)

// categoryRank defines the fixed merge precedence. Lower rank merges earlier.
var categoryRank = map[Category]int{
	CategoryLanguage:      0,
	CategoryDatabase:      1,
	CategoryObservability: 2,
	CategoryCloud:         3,
	CategoryDev:           4,
}

// String returns the string representation of Category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks whether the Category value is one of the predefined
// categories.
func (c Category) IsValid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Rank returns the merge-precedence rank of the category. Unknown categories
// rank after every known one so malformed input cannot jump the queue.
func (c Category) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(categoryRank)
}

// ParseCategory converts a string to a Category.
// Returns an error if the string does not match any valid category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(s))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid overlay category: %q (valid: language, database, observability, cloud, dev)", s)
	}
	return c, nil
}

// Categories lists all valid categories in merge-precedence order.
func Categories() []Category {
	return []Category{CategoryLanguage, CategoryDatabase, CategoryObservability, CategoryCloud, CategoryDev}
}

// PortDescriptor describes a single port an overlay's service exposes.
// Descriptors are informational metadata: the engine uses them to enrich
// portsAttributes in the generated devcontainer.json, not to open sockets.
type PortDescriptor struct {
	// Port is the container-side port number (1-65535).
	Port int `yaml:"port" json:"port" validate:"required,min=1,max=65535"`

	// Protocol is "tcp" or "udp". Empty defaults to "tcp".
	Protocol string `yaml:"protocol,omitempty" json:"protocol,omitempty" validate:"omitempty,oneof=tcp udp"`

	// Service is the semantic service name the port belongs to
	// (e.g., "postgres"). Empty for single-service overlays.
	Service string `yaml:"service,omitempty" json:"service,omitempty"`

	// Description is a human-readable label for the port, surfaced as the
	// portsAttributes label in the generated configuration.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// ConnectionString is an optional template showing how to connect to the
	// service on this port (e.g., "postgresql://localhost:{port}/dev").
	ConnectionString string `yaml:"connectionString,omitempty" json:"connectionString,omitempty"`
}

// OverlayMetadata is the declarative manifest of a single overlay, loaded
// from its overlay.yml. It is immutable once loaded: the engine only reads
// it, and resolution never mutates the registry it came from.
type OverlayMetadata struct {
	// ID is the unique overlay identifier (lowercase alphanumeric + hyphens).
	ID string `yaml:"id" json:"id" validate:"required"`

	// Name is the human-readable display name.
	Name string `yaml:"name" json:"name"`

	// Description explains what the overlay contributes.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Category determines the overlay's merge-precedence group.
	Category Category `yaml:"category" json:"category" validate:"required"`

	// Supports lists the base template kinds this overlay is valid for.
	// An empty list means the overlay supports every base.
	Supports []string `yaml:"supports,omitempty" json:"supports,omitempty"`

	// Requires lists overlay IDs that must be included whenever this overlay
	// is selected. Requirements are expanded transitively during resolution.
	Requires []string `yaml:"requires,omitempty" json:"requires,omitempty"`

	// Suggests lists overlay IDs that pair well with this one. Suggestions
	// never affect the resolved set; they are surfaced to the caller as
	// optional follow-up material.
	Suggests []string `yaml:"suggests,omitempty" json:"suggests,omitempty"`

	// Conflicts lists overlay IDs that cannot coexist with this overlay.
	// Well-formed overlays declare conflicts symmetrically, but the resolver
	// checks both directions rather than trusting that.
	Conflicts []string `yaml:"conflicts,omitempty" json:"conflicts,omitempty"`

	// Ports describes the ports the overlay's services expose, in declaration
	// order.
	Ports []PortDescriptor `yaml:"ports,omitempty" json:"ports,omitempty" validate:"dive"`
}

// SupportsBase reports whether the overlay is valid for the given base
// template kind. An empty Supports list means "all bases".
func (m *OverlayMetadata) SupportsBase(kind string) bool {
	if len(m.Supports) == 0 {
		return true
	}
	for _, s := range m.Supports {
		if s == kind {
			return true
		}
	}
	return false
}

// idRegex validates overlay IDs: lowercase alphanumeric and hyphens,
// starting and ending with an alphanumeric character.
var idRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

// ValidateID checks whether the given string is a valid overlay ID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("overlay id must not be empty")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("invalid overlay id %q: must contain only lowercase alphanumeric characters and hyphens, and start/end with alphanumeric", id)
	}
	return nil
}

// BaseTemplate is the starting point of a composition: a base devcontainer
// fragment plus optional service and environment seeds. Overlay patches are
// folded on top of the base's own fragments.
type BaseTemplate struct {
	// Kind identifies the base template (e.g., "debian", "universal").
	// Overlay Supports sets are matched against this value.
	Kind string `yaml:"kind" json:"kind"`

	// Name is the display name used for the generated container.
	Name string `yaml:"name" json:"name"`

	// Image is the container image the base builds on.
	Image string `yaml:"image" json:"image"`

	// Devcontainer is the base's own devcontainer fragment, used as the
	// initial merge accumulator. May be nil for an empty base.
	Devcontainer map[string]interface{} `yaml:"-" json:"-"`

	// Services is the base's own multi-service fragment, if any.
	Services map[string]interface{} `yaml:"-" json:"-"`

	// EnvTemplate is the base's environment template text, if any.
	EnvTemplate string `yaml:"-" json:"-"`
}

// ResolvedSelection is the output of dependency resolution: the explicit
// selection plus every transitively required overlay, deduplicated and in
// stable category-then-discovery order. The ordering is used unchanged as
// the fold order for merging.
type ResolvedSelection struct {
	// Overlays is the ordered, closed, conflict-free overlay ID set.
	Overlays []string `json:"overlays"`

	// Suggested is the union of the closure's suggests sets, minus overlays
	// already in the closure, in first-seen order. Informational only.
	Suggested []string `json:"suggested,omitempty"`
}

// Contains reports whether the resolved selection includes the given ID.
func (r *ResolvedSelection) Contains(id string) bool {
	for _, o := range r.Overlays {
		if o == id {
			return true
		}
	}
	return false
}

// ManifestVersion is the current schema version of CompositionManifest.
const ManifestVersion = "1"

// CompositionManifest records exactly what one generation run produced, for
// reproducibility and documentation. It is created once at the end of a
// composition, persisted by the orchestrator's caller, and never mutated:
// re-running composition creates a fresh manifest.
type CompositionManifest struct {
	// Version is the manifest schema version.
	Version string `json:"version"`

	// RunID uniquely identifies the generation run.
	RunID string `json:"runId"`

	// Generated is the timestamp of the run.
	Generated time.Time `json:"generated"`

	// BaseTemplate is the kind of the base template used.
	BaseTemplate string `json:"baseTemplate"`

	// BaseImage is the container image of the base template.
	BaseImage string `json:"baseImage,omitempty"`

	// Overlays is the resolved overlay ID list, in fold order.
	Overlays []string `json:"overlays"`

	// PortOffset is the applied host port offset, omitted when zero.
	PortOffset int `json:"portOffset,omitempty"`

	// Preset is the preset label carried through from the caller, if any.
	Preset string `json:"preset,omitempty"`

	// PresetChoices lists the answers that produced the preset, if any.
	PresetChoices []string `json:"presetChoices,omitempty"`

	// ContainerName is the explicit container name requested by the caller.
	ContainerName string `json:"containerName,omitempty"`

	// OutputPath is the directory the composed files were written to.
	OutputPath string `json:"outputPath"`
}
