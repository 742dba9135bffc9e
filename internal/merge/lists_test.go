package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- MergePackageLists ---

// TestMergePackageLists_Union verifies dedup with first-seen order.
func TestMergePackageLists_Union(t *testing.T) {
	got := MergePackageLists("curl git jq", "git make curl gcc")
	assert.Equal(t, "curl git jq make gcc", got)
}

// TestMergePackageLists_NormalizesWhitespace verifies that irregular
// whitespace and empty inputs collapse cleanly.
func TestMergePackageLists_NormalizesWhitespace(t *testing.T) {
	got := MergePackageLists("  curl   git ", "")
	assert.Equal(t, "curl git", got)

	assert.Equal(t, "", MergePackageLists("", ""))
	assert.Equal(t, "vim", MergePackageLists("", "vim"))
}

// --- FilterDependsOn ---

// TestFilterDependsOn_SequencePrunesUnknown verifies the scenario where a
// service declares depends_on ["postgres", "vault"] but only postgres exists
// in the final composition.
func TestFilterDependsOn_SequencePrunesUnknown(t *testing.T) {
	deps := FromAny([]interface{}{"postgres", "vault"})
	known := map[string]bool{"postgres": true, "app": true}

	filtered, ok := FilterDependsOn(deps, known)
	require.True(t, ok)
	assert.Equal(t, []interface{}{"postgres"}, filtered.ToAny())
}

// TestFilterDependsOn_MappingPrunesUnknown verifies the condition-mapping
// form keeps its shape while unknown names are removed.
func TestFilterDependsOn_MappingPrunesUnknown(t *testing.T) {
	deps := FromAny(map[string]interface{}{
		"postgres": map[string]interface{}{"condition": "service_healthy"},
		"vault":    map[string]interface{}{"condition": "service_started"},
	})
	known := map[string]bool{"postgres": true}

	filtered, ok := FilterDependsOn(deps, known)
	require.True(t, ok)

	m, isMap := filtered.ToAny().(map[string]interface{})
	require.True(t, isMap, "mapping-shaped depends_on must stay a mapping")
	require.Len(t, m, 1)
	assert.Equal(t, map[string]interface{}{"condition": "service_healthy"}, m["postgres"])
}

// TestFilterDependsOn_AllUnknownSignalsNoClause verifies that a fully pruned
// clause reports "no dependency clause" rather than an empty one.
func TestFilterDependsOn_AllUnknownSignalsNoClause(t *testing.T) {
	deps := FromAny([]interface{}{"vault", "consul"})

	filtered, ok := FilterDependsOn(deps, map[string]bool{"app": true})
	assert.False(t, ok)
	assert.Nil(t, filtered)
}

// TestFilterDependsOn_NilAndMalformed verifies nil and scalar-shaped clauses
// report no clause.
func TestFilterDependsOn_NilAndMalformed(t *testing.T) {
	_, ok := FilterDependsOn(nil, map[string]bool{"app": true})
	assert.False(t, ok)

	_, ok = FilterDependsOn(FromAny("postgres"), map[string]bool{"postgres": true})
	assert.False(t, ok)
}
