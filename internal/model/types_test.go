package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Category tests ---

// TestParseCategory_Valid verifies that every valid category string parses
// and normalizes case.
func TestParseCategory_Valid(t *testing.T) {
	for _, s := range []string{"language", "Database", "OBSERVABILITY", "cloud", "dev"} {
		c, err := ParseCategory(s)
		require.NoError(t, err, "category %q should parse", s)
		assert.True(t, c.IsValid())
	}
}

// TestParseCategory_Invalid verifies that unknown categories are rejected.
func TestParseCategory_Invalid(t *testing.T) {
	_, err := ParseCategory("runtime")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime")
}

// TestCategoryRank_Order verifies the fixed merge precedence:
// language < database < observability < cloud < dev.
func TestCategoryRank_Order(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 5)
	for i := 1; i < len(cats); i++ {
		assert.Less(t, cats[i-1].Rank(), cats[i].Rank(),
			"%s should merge before %s", cats[i-1], cats[i])
	}
}

// TestCategoryRank_Unknown verifies that an unknown category ranks after
// every known category.
func TestCategoryRank_Unknown(t *testing.T) {
	unknown := Category("bogus")
	for _, c := range Categories() {
		assert.Less(t, c.Rank(), unknown.Rank())
	}
}

// --- ValidateID tests ---

// TestValidateID_Valid verifies accepted overlay ID forms, including
// single-character IDs and hyphenated names.
func TestValidateID_Valid(t *testing.T) {
	for _, id := range []string{"python", "docker-in-docker", "go", "x", "otel-demo-python", "k8s"} {
		assert.NoError(t, ValidateID(id), "id %q should be valid", id)
	}
}

// TestValidateID_Invalid verifies rejected overlay ID forms: empty,
// uppercase, leading/trailing hyphens, and other separators.
func TestValidateID_Invalid(t *testing.T) {
	for _, id := range []string{"", "Python", "-python", "python-", "py_thon", "py thon"} {
		assert.Error(t, ValidateID(id), "id %q should be invalid", id)
	}
}

// --- SupportsBase tests ---

// TestSupportsBase_EmptyMeansAll verifies that an empty supports list makes
// the overlay valid for every base kind.
func TestSupportsBase_EmptyMeansAll(t *testing.T) {
	m := &OverlayMetadata{ID: "python", Category: CategoryLanguage}
	assert.True(t, m.SupportsBase("debian"))
	assert.True(t, m.SupportsBase("anything"))
}

// TestSupportsBase_Restricted verifies membership checks against a
// non-empty supports list.
func TestSupportsBase_Restricted(t *testing.T) {
	m := &OverlayMetadata{ID: "python", Category: CategoryLanguage, Supports: []string{"debian", "universal"}}
	assert.True(t, m.SupportsBase("debian"))
	assert.False(t, m.SupportsBase("alpine"))
}

// --- ResolvedSelection tests ---

// TestResolvedSelection_Contains verifies membership lookup.
func TestResolvedSelection_Contains(t *testing.T) {
	r := &ResolvedSelection{Overlays: []string{"python", "mkdocs"}}
	assert.True(t, r.Contains("python"))
	assert.False(t, r.Contains("postgres"))
}

// --- Error type tests ---

// TestUnknownOverlayError_Message verifies the message names the missing ID
// and, when known, the overlay that required it.
func TestUnknownOverlayError_Message(t *testing.T) {
	err := &UnknownOverlayError{ID: "vault"}
	assert.Contains(t, err.Error(), `"vault"`)

	err = &UnknownOverlayError{ID: "vault", RequiredBy: "consul"}
	assert.Contains(t, err.Error(), `"vault"`)
	assert.Contains(t, err.Error(), `"consul"`)
}

// TestConflictError_NamesBothIDs verifies that both offending overlay IDs
// appear in the message so a caller can present a resolution choice.
func TestConflictError_NamesBothIDs(t *testing.T) {
	err := &ConflictError{A: "docker-in-docker", B: "docker-sock"}
	assert.Contains(t, err.Error(), `"docker-in-docker"`)
	assert.Contains(t, err.Error(), `"docker-sock"`)
}

// TestCLIError_Unwrap verifies CLIError participates in errors.As/errors.Is
// chains so the CLI boundary can recover the typed cause.
func TestCLIError_Unwrap(t *testing.T) {
	cause := &ConflictError{A: "a", B: "b"}
	err := WrapCLIError(ExitConflict, "resolution failed", cause)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "a", conflict.A)
	assert.Equal(t, ExitConflict, err.Code)
}
