package overlay

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/veggerby/container-superposition-sub002/internal/model"
)

// File names recognized inside a base template directory.
const (
	// BaseMetadataFile is the required base template manifest.
	BaseMetadataFile = "base.yml"

	// BaseDevcontainerFile is the base's devcontainer seed (JSONC). It
	// becomes the initial merge accumulator for the composition.
	BaseDevcontainerFile = "devcontainer.json"
)

// baseManifest is the on-disk shape of base.yml.
type baseManifest struct {
	Name  string `yaml:"name" validate:"required"`
	Image string `yaml:"image" validate:"required"`
}

// ListBaseTemplates returns the base template kinds available under the
// given directory, in lexical order.
func ListBaseTemplates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("cannot read base templates directory %s", dir),
			err,
		)
	}

	var kinds []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), BaseMetadataFile)); err == nil {
			kinds = append(kinds, entry.Name())
		}
	}
	return kinds, nil
}

// LoadBaseTemplate loads the base template of the given kind from
// <dir>/<kind>/. The directory must carry a base.yml manifest; the
// devcontainer seed, service fragment, and env template are optional and
// default to empty.
func LoadBaseTemplate(dir, kind string) (*model.BaseTemplate, error) {
	baseDir := filepath.Join(dir, kind)

	data, err := os.ReadFile(filepath.Join(baseDir, BaseMetadataFile))
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("base template %q not found in %s", kind, dir),
			err,
		)
	}

	var manifest baseManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("malformed base manifest %s", filepath.Join(baseDir, BaseMetadataFile)),
			err,
		)
	}
	if err := validate.Struct(&manifest); err != nil {
		return nil, model.WrapCLIError(
			model.ExitOverlayDirInvalid,
			fmt.Sprintf("invalid base manifest %s", filepath.Join(baseDir, BaseMetadataFile)),
			err,
		)
	}

	base := &model.BaseTemplate{
		Kind:  kind,
		Name:  manifest.Name,
		Image: manifest.Image,
	}

	base.Devcontainer, err = loadJSONCFragment(filepath.Join(baseDir, BaseDevcontainerFile))
	if err != nil {
		return nil, err
	}

	base.Services, err = loadYAMLFragment(filepath.Join(baseDir, ServicesFile))
	if err != nil {
		return nil, err
	}

	base.EnvTemplate, err = loadTextFragment(filepath.Join(baseDir, EnvTemplateFile))
	if err != nil {
		return nil, err
	}

	return base, nil
}
