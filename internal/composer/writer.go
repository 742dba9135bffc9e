package composer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/veggerby/container-superposition-sub002/internal/model"
)

// Output file names written under <outputDir>/.devcontainer/.
const (
	// DevcontainerFile is the merged devcontainer document.
	DevcontainerFile = "devcontainer.json"

	// ServicesFile is the merged multi-service document, written only when
	// the composition produced services.
	ServicesFile = "docker-compose.yml"

	// EnvFile is the concatenated environment template, written only when
	// any fragment contributed one.
	EnvFile = ".env.example"

	// ManifestFile records what was composed.
	ManifestFile = "manifest.json"
)

// OutputDir returns the directory WriteOutputs populates for the given
// target directory.
func OutputDir(dir string) string {
	return filepath.Join(dir, ".devcontainer")
}

// WriteOutputs serializes the composition result and writes it under
// <dir>/.devcontainer/.
//
// Every document is serialized in memory before the first file is created:
// a serialization failure therefore leaves the target directory untouched,
// and an I/O failure mid-write is surfaced as a CLIError with
// ExitWriteFailed for the caller to report. The engine never retries.
func WriteOutputs(res *Result, dir string) error {
	type outputFile struct {
		name string
		data []byte
	}

	devJSON, err := marshalJSON(res.Devcontainer)
	if err != nil {
		return model.WrapCLIError(model.ExitWriteFailed, "cannot serialize devcontainer.json", err)
	}
	files := []outputFile{{DevcontainerFile, devJSON}}

	if hasServices(res.Services) {
		svcYAML, err := yaml.Marshal(res.Services)
		if err != nil {
			return model.WrapCLIError(model.ExitWriteFailed, "cannot serialize docker-compose.yml", err)
		}
		header := "# Generated by superpose. Do not edit; re-run generation instead.\n"
		files = append(files, outputFile{ServicesFile, append([]byte(header), svcYAML...)})
	}

	if res.EnvText != "" {
		files = append(files, outputFile{EnvFile, []byte(res.EnvText)})
	}

	manifestJSON, err := marshalJSON(res.Manifest)
	if err != nil {
		return model.WrapCLIError(model.ExitWriteFailed, "cannot serialize manifest.json", err)
	}
	files = append(files, outputFile{ManifestFile, manifestJSON})

	outDir := OutputDir(dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitWriteFailed, fmt.Sprintf("cannot create output directory %s", outDir), err)
	}

	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return model.WrapCLIError(model.ExitWriteFailed, fmt.Sprintf("cannot write %s", path), err)
		}
	}

	return nil
}

// marshalJSON serializes with two-space indentation and a trailing newline,
// matching how devcontainer tooling formats its own files.
func marshalJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// hasServices reports whether the merged service document defines at least
// one service. Top-level volumes or networks alone do not warrant a
// compose file.
func hasServices(doc map[string]interface{}) bool {
	services, ok := doc["services"].(map[string]interface{})
	return ok && len(services) > 0
}
