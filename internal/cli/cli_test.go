// Package cli — cli_test.go contains unit tests for the pure helpers used
// by the CLI commands (formatting, exit-code translation) and an
// end-to-end test of the generate orchestration against a temporary
// overlay directory.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veggerby/container-superposition-sub002/internal/composer"
	"github.com/veggerby/container-superposition-sub002/internal/model"
)

// TestFormatPortList verifies that FormatPortList converts port
// descriptors into a numerically sorted comma-separated string.
func TestFormatPortList(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []model.PortDescriptor
		want        string
	}{
		{
			name:        "empty descriptors",
			descriptors: []model.PortDescriptor{},
			want:        "",
		},
		{
			name:        "nil descriptors",
			descriptors: nil,
			want:        "",
		},
		{
			name:        "single port",
			descriptors: []model.PortDescriptor{{Port: 5432}},
			want:        "5432",
		},
		{
			name: "multiple ports sorted numerically",
			descriptors: []model.PortDescriptor{
				{Port: 16379},
				{Port: 3000},
				{Port: 5432},
			},
			// Numeric sort: lexicographic order would put 16379 first.
			want: "3000,5432,16379",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPortList(tt.descriptors)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestExitCodeFor verifies the error-to-exit-code translation applied by
// Execute: CLIError carries its own code, resolver errors map to their
// dedicated codes, anything else is a general failure.
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ExitCode
	}{
		{
			name: "cli error carries its own code",
			err:  model.NewCLIError(model.ExitWriteFailed, "disk full"),
			want: model.ExitWriteFailed,
		},
		{
			name: "unknown overlay",
			err:  &model.UnknownOverlayError{ID: "nope"},
			want: model.ExitUnknownOverlay,
		},
		{
			name: "wrapped unknown overlay",
			err:  wrapErr(&model.UnknownOverlayError{ID: "nope", RequiredBy: "app"}),
			want: model.ExitUnknownOverlay,
		},
		{
			name: "conflict",
			err:  &model.ConflictError{A: "postgres", B: "mysql"},
			want: model.ExitConflict,
		},
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: model.ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitCodeFor(tt.err, false)
			assert.Equal(t, tt.want, got)
		})
	}
}

// wrapErr adds a wrapping layer so the errors.As traversal is exercised.
func wrapErr(err error) error {
	return model.WrapCLIError(model.ExitUnknownOverlay, "resolution failed", err)
}

// writeGenerateFixture lays out a minimal overlays + base directory pair
// for end-to-end generate tests.
func writeGenerateFixture(t *testing.T) (overlaysDir, basesDir string) {
	t.Helper()
	root := t.TempDir()
	overlaysDir = filepath.Join(root, "overlays")
	basesDir = filepath.Join(root, "base")

	pgDir := filepath.Join(overlaysDir, "postgres")
	require.NoError(t, os.MkdirAll(pgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pgDir, "overlay.yml"), []byte(`
id: postgres
name: PostgreSQL
category: database
ports:
  - port: 5432
    service: postgres
    description: PostgreSQL
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pgDir, "docker-compose.yml"), []byte(`
services:
  postgres:
    image: postgres:16
    ports:
      - "5432:5432"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pgDir, ".env.template"),
		[]byte("POSTGRES_PORT=5432\n"), 0o644))

	debianDir := filepath.Join(basesDir, "debian")
	require.NoError(t, os.MkdirAll(debianDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(debianDir, "base.yml"),
		[]byte("name: Debian Dev\nimage: mcr.microsoft.com/devcontainers/base:debian\n"), 0o644))

	return overlaysDir, basesDir
}

// TestRunGenerate_WritesOutputs runs the generate orchestration end to end
// against an on-disk fixture and verifies the output directory.
func TestRunGenerate_WritesOutputs(t *testing.T) {
	overlaysDir, basesDir := writeGenerateFixture(t)
	output := t.TempDir()

	err := runGenerate(&generateFlags{
		overlays:    []string{"postgres"},
		base:        "debian",
		overlaysDir: overlaysDir,
		basesDir:    basesDir,
		output:      output,
		portOffset:  100,
	})
	require.NoError(t, err)

	out := composer.OutputDir(output)
	for _, name := range []string{composer.DevcontainerFile, composer.ServicesFile, composer.EnvFile, composer.ManifestFile} {
		_, statErr := os.Stat(filepath.Join(out, name))
		assert.NoError(t, statErr, name)
	}

	// The offset reached the env file.
	envData, err := os.ReadFile(filepath.Join(out, composer.EnvFile))
	require.NoError(t, err)
	assert.Equal(t, "POSTGRES_PORT=5532\n", string(envData))
}

// TestRunGenerate_UnknownOverlayWritesNothing verifies a resolver failure
// leaves the output directory untouched.
func TestRunGenerate_UnknownOverlayWritesNothing(t *testing.T) {
	overlaysDir, basesDir := writeGenerateFixture(t)
	output := t.TempDir()

	err := runGenerate(&generateFlags{
		overlays:    []string{"mysql"},
		base:        "debian",
		overlaysDir: overlaysDir,
		basesDir:    basesDir,
		output:      output,
	})
	require.Error(t, err)
	assert.Equal(t, model.ExitUnknownOverlay, exitCodeFor(err, false))

	_, statErr := os.Stat(composer.OutputDir(output))
	assert.True(t, os.IsNotExist(statErr))
}

// TestRunGenerate_RequiresSelection verifies the flag-level validation.
func TestRunGenerate_RequiresSelection(t *testing.T) {
	err := runGenerate(&generateFlags{})
	require.Error(t, err)
	assert.Equal(t, model.ExitGeneralError, exitCodeFor(err, false))
}

// TestRunGenerate_NegativeOffsetRejected verifies offsets below zero are
// rejected before any I/O happens.
func TestRunGenerate_NegativeOffsetRejected(t *testing.T) {
	err := runGenerate(&generateFlags{
		overlays:   []string{"postgres"},
		portOffset: -10,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--port-offset")
}
