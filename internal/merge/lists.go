package merge

import "strings"

// MergePackageLists merges two space-separated package token strings into
// one: tokens deduplicated preserving first-seen order (a's tokens first),
// rejoined with single spaces. Empty tokens are discarded, so irregular
// whitespace in the inputs is normalized away.
//
// This is the narrow sibling of the sequence union rule, used for apt/apk
// style package lists that overlays declare as strings.
func MergePackageLists(a, b string) string {
	var out []string
	seen := make(map[string]bool)

	for _, tok := range append(strings.Fields(a), strings.Fields(b)...) {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}

	return strings.Join(out, " ")
}

// FilterDependsOn removes unknown service names from a depends_on clause.
//
// Compose allows depends_on as either an ordered sequence of service names
// or a mapping from service name to condition; the same shape is returned
// with names absent from known removed. The second return value reports
// whether any dependency clause remains: (nil, false) means the clause
// should be dropped entirely, which is distinct from a caller-supplied
// explicitly empty clause.
func FilterDependsOn(deps *Node, known map[string]bool) (*Node, bool) {
	if deps == nil {
		return nil, false
	}

	switch deps.Kind {
	case KindSequence:
		var kept []*Node
		for _, el := range deps.Seq {
			if name, ok := el.StringValue(); ok && known[name] {
				kept = append(kept, el.Clone())
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		return &Node{Kind: KindSequence, Seq: kept}, true

	case KindMapping:
		kept := make(map[string]*Node)
		for name, cond := range deps.Map {
			if known[name] {
				kept[name] = cond.Clone()
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		return &Node{Kind: KindMapping, Map: kept}, true

	default:
		// A scalar depends_on is malformed; treat it as no clause.
		return nil, false
	}
}
