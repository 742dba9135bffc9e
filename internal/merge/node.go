package merge

import (
	"fmt"
	"math"
	"sort"
)

// Kind tags the variant a Node holds.
type Kind int

const (
	// KindScalar marks a primitive value (string, int, float64, bool, nil).
	KindScalar Kind = iota

	// KindMapping marks a string-keyed nested mapping.
	KindMapping

	// KindSequence marks an ordered sequence of nodes.
	KindSequence
)

// String returns a short name for the kind, used in conflict diagnostics.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is the tagged-variant representation of a configuration fragment.
// Exactly one of Map, Seq, or Value is meaningful, selected by Kind.
//
// Nodes are treated as immutable by the merge algorithm: Merge never writes
// into an input node, it builds fresh nodes for its output.
type Node struct {
	// Kind selects which field below carries the value.
	Kind Kind

	// Map holds the children of a KindMapping node.
	Map map[string]*Node

	// Seq holds the elements of a KindSequence node.
	Seq []*Node

	// Value holds the primitive of a KindScalar node. Restricted to
	// comparable types (string, int, float64, bool, nil) by FromAny.
	Value interface{}
}

// FromAny converts a generic decoded value (as produced by encoding/json or
// yaml.v3 into interface{}) to a Node.
//
// Normalizations applied:
//   - All integer types collapse to int; float64 values that are exact
//     integers collapse to int as well. encoding/json decodes every number
//     as float64, so without this a JSON port 5432 and a YAML port 5432
//     would compare unequal during sequence union.
//   - Non-string mapping keys (legacy YAML decoders) are stringified.
//
// Unknown scalar types are carried through as-is.
func FromAny(v interface{}) *Node {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]*Node, len(val))
		for k, child := range val {
			m[k] = FromAny(child)
		}
		return &Node{Kind: KindMapping, Map: m}
	case map[interface{}]interface{}:
		m := make(map[string]*Node, len(val))
		for k, child := range val {
			m[fmt.Sprint(k)] = FromAny(child)
		}
		return &Node{Kind: KindMapping, Map: m}
	case []interface{}:
		s := make([]*Node, 0, len(val))
		for _, child := range val {
			s = append(s, FromAny(child))
		}
		return &Node{Kind: KindSequence, Seq: s}
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return &Node{Kind: KindScalar, Value: int(val)}
		}
		return &Node{Kind: KindScalar, Value: val}
	case float32:
		return FromAny(float64(val))
	case int:
		return &Node{Kind: KindScalar, Value: val}
	case int64:
		return &Node{Kind: KindScalar, Value: int(val)}
	case uint64:
		return &Node{Kind: KindScalar, Value: int(val)}
	default:
		return &Node{Kind: KindScalar, Value: v}
	}
}

// FromMap converts a decoded mapping to a Node. A nil map yields an empty
// mapping node, which is convenient for starting a merge accumulator.
func FromMap(m map[string]interface{}) *Node {
	if m == nil {
		return &Node{Kind: KindMapping, Map: map[string]*Node{}}
	}
	return FromAny(m)
}

// ToAny converts a Node back to the generic representation expected by
// encoding/json and yaml.v3 marshaling. Mapping keys come out in whatever
// order the serializer chooses; both serializers sort map keys, so output
// is deterministic.
func (n *Node) ToAny() interface{} {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindMapping:
		m := make(map[string]interface{}, len(n.Map))
		for k, child := range n.Map {
			m[k] = child.ToAny()
		}
		return m
	case KindSequence:
		s := make([]interface{}, 0, len(n.Seq))
		for _, child := range n.Seq {
			s = append(s, child.ToAny())
		}
		return s
	default:
		return n.Value
	}
}

// ToMap converts a mapping node to map[string]interface{}. Returns an empty
// map for nil or non-mapping nodes.
func (n *Node) ToMap() map[string]interface{} {
	if n == nil || n.Kind != KindMapping {
		return map[string]interface{}{}
	}
	m, _ := n.ToAny().(map[string]interface{})
	return m
}

// Clone returns a deep copy of the node. Merge uses Clone to guarantee the
// output shares no structure with its inputs.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindMapping:
		m := make(map[string]*Node, len(n.Map))
		for k, child := range n.Map {
			m[k] = child.Clone()
		}
		return &Node{Kind: KindMapping, Map: m}
	case KindSequence:
		s := make([]*Node, 0, len(n.Seq))
		for _, child := range n.Seq {
			s = append(s, child.Clone())
		}
		return &Node{Kind: KindSequence, Seq: s}
	default:
		return &Node{Kind: KindScalar, Value: n.Value}
	}
}

// Equal reports deep structural equality of two nodes. Sequence union uses
// this to deduplicate elements, so it must treat structurally identical
// mappings (e.g., two identical mount objects) as equal.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindMapping:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindSequence:
		if len(a.Seq) != len(b.Seq) {
			return false
		}
		for i := range a.Seq {
			if !Equal(a.Seq[i], b.Seq[i]) {
				return false
			}
		}
		return true
	default:
		return a.Value == b.Value
	}
}

// StringValue returns the scalar string value of the node and whether the
// node is in fact a string scalar.
func (n *Node) StringValue() (string, bool) {
	if n == nil || n.Kind != KindScalar {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// IntValue returns the scalar int value of the node and whether the node is
// in fact an integer scalar.
func (n *Node) IntValue() (int, bool) {
	if n == nil || n.Kind != KindScalar {
		return 0, false
	}
	i, ok := n.Value.(int)
	return i, ok
}

// SortedKeys returns the mapping's keys in sorted order, for deterministic
// iteration. Returns nil for non-mapping nodes.
func (n *Node) SortedKeys() []string {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(n.Map))
	for k := range n.Map {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
