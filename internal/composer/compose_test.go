package composer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veggerby/container-superposition-sub002/internal/model"
	"github.com/veggerby/container-superposition-sub002/internal/overlay"
)

// testRegistry assembles an in-memory registry mirroring a small but
// realistic overlays directory: a language overlay, a database overlay with
// a service + env template, and an observability overlay whose service
// optionally links to a vault service that is never part of the registry.
func testRegistry() *overlay.Registry {
	python := &overlay.Overlay{
		Meta: model.OverlayMetadata{ID: "python", Category: model.CategoryLanguage},
		Devcontainer: map[string]interface{}{
			"features":     map[string]interface{}{"ghcr.io/devcontainers/features/python:1": map[string]interface{}{"version": "3.12"}},
			"forwardPorts": []interface{}{float64(8000)},
			"remoteEnv":    map[string]interface{}{"PATH": "/opt/python/bin:${containerEnv:PATH}"},
		},
	}

	mkdocs := &overlay.Overlay{
		Meta: model.OverlayMetadata{ID: "mkdocs", Category: model.CategoryLanguage, Requires: []string{"python"}},
		Devcontainer: map[string]interface{}{
			"forwardPorts": []interface{}{float64(8000), float64(8001)},
			"remoteEnv":    map[string]interface{}{"PATH": "/opt/mkdocs/bin:${containerEnv:PATH}"},
		},
	}

	postgres := &overlay.Overlay{
		Meta: model.OverlayMetadata{
			ID:       "postgres",
			Category: model.CategoryDatabase,
			Ports:    []model.PortDescriptor{{Port: 5432, Service: "postgres", Description: "PostgreSQL"}},
		},
		Devcontainer: map[string]interface{}{
			"forwardPorts": []interface{}{float64(5432)},
		},
		Services: map[string]interface{}{
			"services": map[string]interface{}{
				"postgres": map[string]interface{}{
					"image": "postgres:16",
					"ports": []interface{}{"5432:5432"},
				},
			},
			"volumes": map[string]interface{}{"postgres-data": map[string]interface{}{}},
		},
		EnvTemplate: "POSTGRES_PORT=5432\nPOSTGRES_DB=dev\n",
	}

	grafana := &overlay.Overlay{
		Meta: model.OverlayMetadata{ID: "grafana", Category: model.CategoryObservability},
		Services: map[string]interface{}{
			"services": map[string]interface{}{
				"grafana": map[string]interface{}{
					"image":      "grafana/grafana:11.2.0",
					"ports":      []interface{}{"3001:3000"},
					"depends_on": []interface{}{"postgres", "vault"},
				},
			},
		},
		EnvTemplate: "GRAFANA_PORT=3001\n",
	}

	return overlay.NewRegistry([]*overlay.Overlay{grafana, mkdocs, postgres, python})
}

// testBase returns a base template with a devcontainer seed.
func testBase() *model.BaseTemplate {
	return &model.BaseTemplate{
		Kind:  "debian",
		Name:  "Debian Dev",
		Image: "mcr.microsoft.com/devcontainers/base:debian",
		Devcontainer: map[string]interface{}{
			"name":      "debian-dev",
			"image":     "mcr.microsoft.com/devcontainers/base:debian",
			"remoteEnv": map[string]interface{}{"PATH": "/usr/local/bin:${containerEnv:PATH}"},
		},
	}
}

// TestCompose_FoldsInResolvedOrder verifies the full devcontainer fold:
// base seed first, then overlays in resolved order, with sequence union
// and search-path merging applied across fragments.
func TestCompose_FoldsInResolvedOrder(t *testing.T) {
	res, err := Compose(Request{
		Selection: []string{"mkdocs", "postgres"},
		Registry:  testRegistry(),
		Base:      testBase(),
		OutputDir: "/tmp/out",
	}, zerolog.Nop())
	require.NoError(t, err)

	// python is pulled in by mkdocs and merges before it.
	assert.Equal(t, []string{"python", "mkdocs", "postgres"}, res.Manifest.Overlays)

	// forwardPorts union across base (none), python [8000], mkdocs
	// [8000, 8001], postgres [5432]: first-seen order, no duplicates.
	assert.Equal(t, []interface{}{8000, 8001, 5432}, res.Devcontainer["forwardPorts"])

	// PATH accumulated all three fragments' tokens; inherit placeholder
	// exactly once at the end.
	env := res.Devcontainer["remoteEnv"].(map[string]interface{})
	assert.Equal(t, "/usr/local/bin:/opt/python/bin:/opt/mkdocs/bin:${containerEnv:PATH}", env["PATH"])

	// Feature adopted wholesale from python's patch.
	features := res.Devcontainer["features"].(map[string]interface{})
	assert.Contains(t, features, "ghcr.io/devcontainers/features/python:1")

	// Base identity preserved.
	assert.Equal(t, "debian-dev", res.Devcontainer["name"])
	assert.Equal(t, "mcr.microsoft.com/devcontainers/base:debian", res.Devcontainer["image"])
}

// TestCompose_ResolverFailureAbortsRun verifies a resolver failure is
// surfaced unmodified and produces no result.
func TestCompose_ResolverFailureAbortsRun(t *testing.T) {
	res, err := Compose(Request{
		Selection: []string{"nonexistent"},
		Registry:  testRegistry(),
		Base:      testBase(),
	}, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, res)

	var unknown *model.UnknownOverlayError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nonexistent", unknown.ID)
}

// TestCompose_DanglingDependsOnPruned verifies the scenario where grafana
// declares depends_on [postgres, vault] but only postgres is composed.
func TestCompose_DanglingDependsOnPruned(t *testing.T) {
	res, err := Compose(Request{
		Selection: []string{"grafana", "postgres"},
		Registry:  testRegistry(),
		Base:      testBase(),
	}, zerolog.Nop())
	require.NoError(t, err)

	services := res.Services["services"].(map[string]interface{})
	grafana := services["grafana"].(map[string]interface{})
	assert.Equal(t, []interface{}{"postgres"}, grafana["depends_on"])
}

// TestCompose_FullyDanglingDependsOnDropped verifies that a depends_on
// clause whose every reference is missing disappears entirely.
func TestCompose_FullyDanglingDependsOnDropped(t *testing.T) {
	res, err := Compose(Request{
		Selection: []string{"grafana"},
		Registry:  testRegistry(),
		Base:      testBase(),
	}, zerolog.Nop())
	require.NoError(t, err)

	services := res.Services["services"].(map[string]interface{})
	grafana := services["grafana"].(map[string]interface{})
	_, has := grafana["depends_on"]
	assert.False(t, has, "a fully dangling depends_on must be dropped, not emptied")
}

// TestCompose_EnvTemplatesConcatenated verifies env fragments concatenate
// in overlay order, separated by exactly one blank line.
func TestCompose_EnvTemplatesConcatenated(t *testing.T) {
	res, err := Compose(Request{
		Selection: []string{"grafana", "postgres"},
		Registry:  testRegistry(),
		Base:      testBase(),
	}, zerolog.Nop())
	require.NoError(t, err)

	// postgres (database) folds before grafana (observability).
	assert.Equal(t, "POSTGRES_PORT=5432\nPOSTGRES_DB=dev\n\nGRAFANA_PORT=3001\n", res.EnvText)
}

// TestCompose_PortOffsetEndToEnd verifies offset propagation across every
// output shape: forwardPorts integers, service host ports, env lines, and
// portsAttributes keys.
func TestCompose_PortOffsetEndToEnd(t *testing.T) {
	res, err := Compose(Request{
		Selection:  []string{"grafana", "postgres"},
		Registry:   testRegistry(),
		Base:       testBase(),
		PortOffset: 100,
	}, zerolog.Nop())
	require.NoError(t, err)

	// Devcontainer forwardPorts shifted.
	assert.Equal(t, []interface{}{5532}, res.Devcontainer["forwardPorts"])

	// Service host side shifted, container side untouched.
	services := res.Services["services"].(map[string]interface{})
	postgres := services["postgres"].(map[string]interface{})
	assert.Equal(t, []interface{}{"5532:5432"}, postgres["ports"])
	grafana := services["grafana"].(map[string]interface{})
	assert.Equal(t, []interface{}{"3101:3000"}, grafana["ports"])

	// Env lines with PORT keys shifted; other lines untouched.
	assert.Contains(t, res.EnvText, "POSTGRES_PORT=5532\n")
	assert.Contains(t, res.EnvText, "POSTGRES_DB=dev\n")
	assert.Contains(t, res.EnvText, "GRAFANA_PORT=3101\n")

	// portsAttributes re-keyed to the shifted port; label came from the
	// postgres overlay's port descriptor.
	attrs := res.Devcontainer["portsAttributes"].(map[string]interface{})
	require.Contains(t, attrs, "5532")
	assert.Equal(t, map[string]interface{}{"label": "PostgreSQL"}, attrs["5532"])

	assert.Equal(t, 100, res.Manifest.PortOffset)
}

// TestCompose_ZeroOffsetLeavesPortsAlone verifies offset 0 is the identity
// across the whole composition.
func TestCompose_ZeroOffsetLeavesPortsAlone(t *testing.T) {
	res, err := Compose(Request{
		Selection: []string{"postgres"},
		Registry:  testRegistry(),
		Base:      testBase(),
	}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []interface{}{5432}, res.Devcontainer["forwardPorts"])
	services := res.Services["services"].(map[string]interface{})
	postgres := services["postgres"].(map[string]interface{})
	assert.Equal(t, []interface{}{"5432:5432"}, postgres["ports"])
	assert.Contains(t, res.EnvText, "POSTGRES_PORT=5432\n")
}

// TestCompose_ContainerNameOverride verifies the caller's explicit name
// wins over the base seed's name.
func TestCompose_ContainerNameOverride(t *testing.T) {
	res, err := Compose(Request{
		Selection:     []string{"python"},
		Registry:      testRegistry(),
		Base:          testBase(),
		ContainerName: "my-project",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "my-project", res.Devcontainer["name"])
	assert.Equal(t, "my-project", res.Manifest.ContainerName)
}

// TestCompose_ManifestRecordsRun verifies the manifest fields a caller
// relies on for reproducibility.
func TestCompose_ManifestRecordsRun(t *testing.T) {
	res, err := Compose(Request{
		Selection:     []string{"mkdocs"},
		Registry:      testRegistry(),
		Base:          testBase(),
		Preset:        "docs-site",
		PresetChoices: []string{"language=python", "docs=mkdocs"},
		OutputDir:     "/workspaces/demo",
	}, zerolog.Nop())
	require.NoError(t, err)

	m := res.Manifest
	assert.Equal(t, model.ManifestVersion, m.Version)
	assert.NotEmpty(t, m.RunID)
	assert.False(t, m.Generated.IsZero())
	assert.Equal(t, "debian", m.BaseTemplate)
	assert.Equal(t, "mcr.microsoft.com/devcontainers/base:debian", m.BaseImage)
	assert.Equal(t, []string{"python", "mkdocs"}, m.Overlays)
	assert.Equal(t, "docs-site", m.Preset)
	assert.Equal(t, []string{"language=python", "docs=mkdocs"}, m.PresetChoices)
	assert.Equal(t, "/workspaces/demo", m.OutputPath)
	assert.Zero(t, m.PortOffset)
}

// TestCompose_FreshRunsShareNoState verifies two runs over the same
// registry do not leak accumulator state into each other (the registry's
// fragments must be treated as read-only sources).
func TestCompose_FreshRunsShareNoState(t *testing.T) {
	reg := testRegistry()
	base := testBase()

	first, err := Compose(Request{Selection: []string{"postgres"}, Registry: reg, Base: base, PortOffset: 100}, zerolog.Nop())
	require.NoError(t, err)

	second, err := Compose(Request{Selection: []string{"postgres"}, Registry: reg, Base: base}, zerolog.Nop())
	require.NoError(t, err)

	// The second, offset-free run must see the original ports even though
	// the first run shifted its own copies.
	services := second.Services["services"].(map[string]interface{})
	postgres := services["postgres"].(map[string]interface{})
	assert.Equal(t, []interface{}{"5432:5432"}, postgres["ports"])
	assert.NotEqual(t, first.Manifest.RunID, second.Manifest.RunID)
}
