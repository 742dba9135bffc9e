package overlay

import (
	"github.com/veggerby/container-superposition-sub002/internal/model"
)

// Overlay bundles an overlay's metadata with its parsed configuration
// fragments. Fragments are nil (or empty) when the overlay does not ship
// the corresponding file.
type Overlay struct {
	// Meta is the declarative manifest from overlay.yml.
	Meta model.OverlayMetadata

	// Devcontainer is the parsed devcontainer-patch.json fragment.
	Devcontainer map[string]interface{}

	// Services is the parsed docker-compose.yml fragment.
	Services map[string]interface{}

	// EnvTemplate is the raw .env.template text.
	EnvTemplate string
}

// Registry holds every loaded overlay, keyed by ID, preserving declaration
// order (the order overlay directories were discovered on disk). It is
// read-only after loading.
type Registry struct {
	byID  map[string]*Overlay
	order []string
}

// NewRegistry builds a registry from pre-constructed overlays, preserving
// the given order. Used by tests and by callers that assemble overlays
// without a filesystem.
func NewRegistry(overlays []*Overlay) *Registry {
	r := &Registry{byID: make(map[string]*Overlay, len(overlays))}
	for _, o := range overlays {
		if _, dup := r.byID[o.Meta.ID]; dup {
			continue
		}
		r.byID[o.Meta.ID] = o
		r.order = append(r.order, o.Meta.ID)
	}
	return r
}

// Lookup returns the metadata for the given overlay ID. This satisfies the
// resolver's Registry interface.
func (r *Registry) Lookup(id string) (*model.OverlayMetadata, bool) {
	o, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return &o.Meta, true
}

// Get returns the full overlay (metadata plus fragments) for the given ID.
func (r *Registry) Get(id string) (*Overlay, bool) {
	o, ok := r.byID[id]
	return o, ok
}

// IDs returns every overlay ID in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len returns the number of loaded overlays.
func (r *Registry) Len() int {
	return len(r.order)
}
