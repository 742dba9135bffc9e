package overlay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/veggerby/container-superposition-sub002/internal/model"
)

// File names recognized inside an overlay or base template directory.
const (
	// MetadataFile is the required overlay manifest.
	MetadataFile = "overlay.yml"

	// DevcontainerPatchFile is the optional devcontainer fragment. JSONC
	// is accepted since devcontainer tooling itself allows comments.
	DevcontainerPatchFile = "devcontainer-patch.json"

	// ServicesFile is the optional multi-service fragment.
	ServicesFile = "docker-compose.yml"

	// EnvTemplateFile is the optional environment template.
	EnvTemplateFile = ".env.template"
)

// validate checks struct tags on loaded metadata. A single instance is
// reused; validator caches struct introspection internally.
var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadRegistry walks the given overlays directory and loads every overlay
// subdirectory that contains an overlay.yml. Subdirectories without a
// manifest are skipped silently — overlay payload directories may nest
// arbitrary content.
//
// Directory entries are processed in lexical order (os.ReadDir sorts), so
// registry declaration order is stable across runs.
//
// Returns a CLIError with ExitOverlayDirInvalid when the directory cannot
// be read or any manifest is malformed.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("cannot read overlays directory %s", dir),
			err,
		)
	}

	var overlays []*Overlay
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		overlayDir := filepath.Join(dir, entry.Name())
		metaPath := filepath.Join(overlayDir, MetadataFile)
		if _, err := os.Stat(metaPath); err != nil {
			// Not an overlay directory; skip.
			continue
		}

		o, err := loadOverlay(overlayDir, entry.Name())
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, o)
	}

	return NewRegistry(overlays), nil
}

// loadOverlay reads one overlay directory: manifest plus whichever
// fragments are present. dirName is the directory's base name, which must
// match the manifest's declared ID to prevent copy-paste drift between
// directory layout and metadata.
func loadOverlay(dir, dirName string) (*Overlay, error) {
	meta, err := loadMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}

	if meta.ID != dirName {
		return nil, model.NewCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("overlay %s: manifest id %q does not match directory name %q", dir, meta.ID, dirName),
		)
	}

	o := &Overlay{Meta: *meta}

	o.Devcontainer, err = loadJSONCFragment(filepath.Join(dir, DevcontainerPatchFile))
	if err != nil {
		return nil, err
	}

	o.Services, err = loadYAMLFragment(filepath.Join(dir, ServicesFile))
	if err != nil {
		return nil, err
	}

	o.EnvTemplate, err = loadTextFragment(filepath.Join(dir, EnvTemplateFile))
	if err != nil {
		return nil, err
	}

	return o, nil
}

// loadMetadata parses and validates an overlay.yml manifest.
func loadMetadata(path string) (*model.OverlayMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("cannot read overlay manifest %s", path),
			err,
		)
	}

	var meta model.OverlayMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("malformed overlay manifest %s", path),
			err,
		)
	}

	// Struct-tag validation covers required fields and port ranges; the ID
	// grammar and category enumeration need explicit checks.
	if err := validate.Struct(&meta); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("invalid overlay manifest %s", path),
			err,
		)
	}
	if err := model.ValidateID(meta.ID); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("invalid overlay manifest %s", path),
			err,
		)
	}
	if !meta.Category.IsValid() {
		return nil, model.NewCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("invalid overlay manifest %s: unknown category %q", path, meta.Category),
		)
	}

	return &meta, nil
}

// loadJSONCFragment reads an optional JSONC fragment into a generic map.
// A missing file is not an error; it yields a nil map.
func loadJSONCFragment(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("cannot read fragment %s", path),
			err,
		)
	}

	// Strip comments and trailing commas before handing the bytes to
	// encoding/json; devcontainer fragments routinely carry comments.
	var fragment map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &fragment); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("malformed fragment %s", path),
			err,
		)
	}
	return fragment, nil
}

// loadYAMLFragment reads an optional YAML fragment into a generic map.
// A missing file is not an error; it yields a nil map.
func loadYAMLFragment(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("cannot read fragment %s", path),
			err,
		)
	}

	var fragment map[string]interface{}
	if err := yaml.Unmarshal(data, &fragment); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("malformed fragment %s", path),
			err,
		)
	}
	return fragment, nil
}

// loadTextFragment reads an optional text fragment. A missing file is not
// an error; it yields the empty string.
func loadTextFragment(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("cannot read fragment %s", path),
			err,
		)
	}
	return string(data), nil
}
