package resolve

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/veggerby/container-superposition-sub002/internal/model"
)

// Registry is the read-only overlay metadata lookup the resolver consumes.
// The overlay package's Registry satisfies it; tests use small fakes.
type Registry interface {
	// Lookup returns the metadata for the given overlay ID and whether the
	// overlay exists.
	Lookup(id string) (*model.OverlayMetadata, bool)
}

// Resolve expands the selected overlay IDs into their transitive requires
// closure, validates it, and returns the stable-ordered result.
//
// Failure modes:
//   - *model.UnknownOverlayError when the selection or any transitive
//     requirement references an ID absent from the registry.
//   - *model.ConflictError when two overlays in the closure conflict,
//     checked in both directions rather than trusting declared symmetry.
//
// Ordering: fixed category precedence (language, database, observability,
// cloud, dev), then discovery order within a category, where an overlay's
// requirements are discovered before the overlay itself. A dependent
// therefore merges after its dependencies and wins last-writer-wins
// outcomes against them.
//
// The selected slice is never mutated; resolution builds a new set.
// Resolving the output again yields the same set (the closure is a fixed
// point).
func Resolve(selected []string, reg Registry) (model.ResolvedSelection, error) {
	return ResolveWithLogger(selected, reg, zerolog.Nop())
}

// ResolveWithLogger is Resolve with a logger for diagnostics. The only
// events emitted are debug-level: requires cycles, which are tolerated
// (the visited-set test stops expansion) but worth surfacing to overlay
// authors.
func ResolveWithLogger(selected []string, reg Registry, log zerolog.Logger) (model.ResolvedSelection, error) {
	w := &walker{reg: reg, log: log, members: make(map[string]bool)}

	// Requirement-first walk over requires edges. The visited-set test
	// makes requires cycles terminate: a cycle just stops growing the set,
	// it is not an error.
	for _, id := range selected {
		if err := w.visit(id, ""); err != nil {
			return model.ResolvedSelection{}, err
		}
	}

	// Conflict check over every pair in the closure. Well-formed overlays
	// declare conflicts symmetrically, but both directions are checked so a
	// one-sided declaration still fails.
	for i := 0; i < len(w.discovered); i++ {
		for j := i + 1; j < len(w.discovered); j++ {
			a, _ := reg.Lookup(w.discovered[i])
			b, _ := reg.Lookup(w.discovered[j])
			if containsID(a.Conflicts, b.ID) {
				return model.ResolvedSelection{}, &model.ConflictError{A: a.ID, B: b.ID}
			}
			if containsID(b.Conflicts, a.ID) {
				return model.ResolvedSelection{}, &model.ConflictError{A: b.ID, B: a.ID}
			}
		}
	}

	// Stable output order: category precedence first; sort.SliceStable
	// preserves the requirement-first discovery order within equal ranks.
	ordered := make([]string, len(w.discovered))
	copy(ordered, w.discovered)
	sort.SliceStable(ordered, func(i, j int) bool {
		mi, _ := reg.Lookup(ordered[i])
		mj, _ := reg.Lookup(ordered[j])
		return mi.Category.Rank() < mj.Category.Rank()
	})

	// Surface suggestions as metadata: the union of the closure's suggests
	// sets, minus overlays already included, restricted to IDs the registry
	// actually knows (a suggestion the caller cannot select is useless).
	var suggested []string
	suggestedSeen := make(map[string]bool)
	for _, id := range ordered {
		meta, _ := reg.Lookup(id)
		for _, s := range meta.Suggests {
			if w.members[s] || suggestedSeen[s] {
				continue
			}
			if _, known := reg.Lookup(s); !known {
				continue
			}
			suggestedSeen[s] = true
			suggested = append(suggested, s)
		}
	}

	return model.ResolvedSelection{Overlays: ordered, Suggested: suggested}, nil
}

// walker carries the closure traversal state for one resolution run.
type walker struct {
	reg Registry
	log zerolog.Logger

	// members holds every overlay entered so far; doubles as the cycle
	// guard for in-progress visits.
	members map[string]bool

	// discovered lists overlays in completion order: an overlay appears
	// after all of its (acyclic) requirements.
	discovered []string
}

// visit adds the overlay and, first, its transitive requirements to the
// closure. requiredBy names the overlay whose requires edge led here, for
// error reporting; it is empty for explicitly selected overlays.
func (w *walker) visit(id, requiredBy string) error {
	if w.members[id] {
		return nil
	}

	meta, ok := w.reg.Lookup(id)
	if !ok {
		return &model.UnknownOverlayError{ID: id, RequiredBy: requiredBy}
	}

	// Mark before recursing so a requires cycle back to this overlay
	// terminates instead of looping.
	w.members[id] = true

	for _, req := range meta.Requires {
		if w.members[req] {
			// Already entered: either a diamond or a cycle. Report the
			// direct mutual form for overlay authors; longer cycles
			// terminate the same way without an individual diagnostic.
			if reqMeta, known := w.reg.Lookup(req); known && containsID(reqMeta.Requires, id) {
				w.log.Debug().Str("overlay", id).Str("requires", req).
					Msg("mutual requires cycle; both overlays are included once")
			}
			continue
		}
		if err := w.visit(req, id); err != nil {
			return err
		}
	}

	w.discovered = append(w.discovered, id)
	return nil
}

// containsID reports whether the ID list contains the given ID.
func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
