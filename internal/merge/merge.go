package merge

import "strings"

// defaultEnvKeys are the mapping keys treated as environment variable maps.
// Both devcontainer env blocks get the search-path-aware treatment.
var defaultEnvKeys = []string{"remoteEnv", "containerEnv"}

// Options tunes Merge behavior. The zero value is a valid configuration.
type Options struct {
	// EnvKeys lists mapping keys whose values are environment variable maps
	// and should get search-path-aware string merging. Nil selects the
	// default set (remoteEnv, containerEnv).
	EnvKeys []string

	// Conflict, when non-nil, is invoked for every key where target and
	// source disagree on kind and the source value wins. Path is a
	// dot-joined key path from the fragment root. Purely informational;
	// the merge result is the same with or without the hook.
	Conflict func(path string, target, source Kind)
}

func (o *Options) envKeys() []string {
	if o == nil || o.EnvKeys == nil {
		return defaultEnvKeys
	}
	return o.EnvKeys
}

func (o *Options) conflict(path string, target, source Kind) {
	if o != nil && o.Conflict != nil {
		o.Conflict(path, target, source)
	}
}

// Merge combines source into target and returns a new node. Neither input
// is modified, and the result shares no structure with either input.
//
// Rules, evaluated per key present in source:
//  1. Both values are mappings → recurse.
//  2. Both values are sequences → union: target's elements in order, then
//     source elements not already present. An empty source sequence is
//     "no change", it never clears an existing target sequence.
//  3. Inside an environment variable map (remoteEnv/containerEnv), string
//     values that are colon-separated search paths merge token-wise; see
//     MergeSearchPaths.
//  4. Otherwise the source value wins (last-writer-wins), including kind
//     mismatches, which are reported through Options.Conflict but are never
//     errors.
//
// A nil target adopts source wholesale and vice versa.
func Merge(target, source *Node, opts *Options) *Node {
	if target == nil {
		return source.Clone()
	}
	if source == nil {
		return target.Clone()
	}
	return mergeNodes(target, source, opts, "", false)
}

// mergeNodes merges two nodes at the given key path. envMap marks that the
// nodes are children of an environment variable map, enabling search-path
// string merging.
func mergeNodes(target, source *Node, opts *Options, path string, envMap bool) *Node {
	switch {
	case target.Kind == KindMapping && source.Kind == KindMapping:
		return mergeMappings(target, source, opts, path, envMap)

	case target.Kind == KindSequence && source.Kind == KindSequence:
		return mergeSequences(target, source)

	case envMap && target.Kind == KindScalar && source.Kind == KindScalar:
		ts, tok := target.StringValue()
		ss, sok := source.StringValue()
		if tok && sok && isSearchPath(ts, ss) {
			key := path[strings.LastIndex(path, ".")+1:]
			return &Node{Kind: KindScalar, Value: MergeSearchPaths(key, ts, ss)}
		}
		return source.Clone()

	default:
		if target.Kind != source.Kind {
			opts.conflict(path, target.Kind, source.Kind)
		}
		return source.Clone()
	}
}

// mergeMappings applies the per-key rules. Keys only in target are copied,
// keys only in source are adopted wholesale, shared keys recurse.
func mergeMappings(target, source *Node, opts *Options, path string, envMap bool) *Node {
	out := make(map[string]*Node, len(target.Map)+len(source.Map))

	for k, tv := range target.Map {
		out[k] = tv.Clone()
	}

	for k, sv := range source.Map {
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}

		tv, present := target.Map[k]
		if !present {
			out[k] = sv.Clone()
			continue
		}

		// Children of an env-map key get the search-path treatment. The
		// flag only turns on when descending through the env key itself;
		// deeper levels (which well-formed env maps don't have) inherit it.
		childEnv := envMap
		if !envMap && isEnvKey(k, opts) {
			childEnv = true
		}

		out[k] = mergeNodes(tv, sv, opts, childPath, childEnv)
	}

	return &Node{Kind: KindMapping, Map: out}
}

// mergeSequences unions two sequences: target order first, then source
// elements not already present. Duplicate source elements are dropped via
// deep equality, so identical mount objects or port numbers from two
// overlays appear once.
func mergeSequences(target, source *Node) *Node {
	if len(source.Seq) == 0 {
		// Empty source sequences mean "no change", not "delete".
		return target.Clone()
	}

	out := make([]*Node, 0, len(target.Seq)+len(source.Seq))
	for _, el := range target.Seq {
		out = append(out, el.Clone())
	}

	for _, el := range source.Seq {
		duplicate := false
		for _, existing := range out {
			if Equal(existing, el) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, el.Clone())
		}
	}

	return &Node{Kind: KindSequence, Seq: out}
}

// isEnvKey reports whether the mapping key denotes an environment variable
// map per the configured options.
func isEnvKey(key string, opts *Options) bool {
	for _, k := range opts.envKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// isSearchPath reports whether a pair of env values should be merged as a
// search path rather than overwritten. A value qualifies when either side
// tokenizes to two or more top-level colon-separated tokens; single-token
// values keep ordinary last-writer-wins semantics.
func isSearchPath(target, source string) bool {
	return len(tokenizePath(target)) >= 2 || len(tokenizePath(source)) >= 2
}

// MergeSearchPaths merges two colon-separated search path values for the
// environment variable named key.
//
// Tokens are deduplicated preserving first-seen order, target first. Any
// token that is an "inherit the outer value" placeholder — a whole ${...}
// token whose reference ends in the variable's own name, such as
// ${containerEnv:PATH} for PATH — is stripped during tokenization and
// re-appended exactly once at the end, no matter how many times it appeared
// in either input. Placeholders referencing other variables are ordinary
// tokens and keep their position.
func MergeSearchPaths(key, target, source string) string {
	var literals []string
	var inherits []string
	seen := make(map[string]bool)

	for _, tok := range append(tokenizePath(target), tokenizePath(source)...) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if isInheritToken(tok, key) {
			inherits = append(inherits, tok)
		} else {
			literals = append(literals, tok)
		}
	}

	return strings.Join(append(literals, inherits...), ":")
}

// tokenizePath splits a search path value on colons, never splitting inside
// a ${...} placeholder (whose syntax itself uses a colon, as in
// ${containerEnv:PATH}). Empty tokens are discarded.
func tokenizePath(s string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			depth++
			cur.WriteByte(c)
		case c == '}' && depth > 0:
			depth--
			cur.WriteByte(c)
		case c == ':' && depth == 0:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}

	return tokens
}

// isInheritToken reports whether tok is a whole-token ${...} placeholder
// that references the variable named key, i.e. inherits the outer value.
func isInheritToken(tok, key string) bool {
	if key == "" {
		return false
	}
	if !strings.HasPrefix(tok, "${") || !strings.HasSuffix(tok, "}") {
		return false
	}
	inner := tok[2 : len(tok)-1]
	return inner == key || strings.HasSuffix(inner, ":"+key)
}
