package composer

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veggerby/container-superposition-sub002/internal/merge"
	"github.com/veggerby/container-superposition-sub002/internal/model"
	"github.com/veggerby/container-superposition-sub002/internal/overlay"
	"github.com/veggerby/container-superposition-sub002/internal/port"
	"github.com/veggerby/container-superposition-sub002/internal/resolve"
)

// Request carries everything one composition run needs. All inputs are
// already in memory; Compose itself performs no I/O.
type Request struct {
	// Selection is the overlay IDs the user explicitly chose.
	Selection []string

	// Registry is the loaded overlay registry.
	Registry *overlay.Registry

	// Base is the base template the composition starts from.
	Base *model.BaseTemplate

	// PortOffset is added to every host-facing port in the outputs.
	// Zero means no rewriting.
	PortOffset int

	// Preset and PresetChoices are labels carried through to the manifest
	// when the selection came from a preset.
	Preset        string
	PresetChoices []string

	// ContainerName overrides the base template's display name when set.
	ContainerName string

	// OutputDir is recorded in the manifest and used by WriteOutputs.
	OutputDir string
}

// Result is the in-memory outcome of a composition run, ready to be
// serialized by WriteOutputs.
type Result struct {
	// Devcontainer is the fully folded devcontainer document.
	Devcontainer map[string]interface{}

	// Services is the fully folded multi-service document, with dangling
	// depends_on references pruned. Empty when no fragment contributed
	// services.
	Services map[string]interface{}

	// EnvText is the concatenated, offset-rewritten environment template.
	EnvText string

	// Suggested lists overlays the resolved set suggests but does not
	// include, for optional follow-up prompts.
	Suggested []string

	// Manifest records what was composed.
	Manifest model.CompositionManifest
}

// Compose runs one composition end-to-end in memory.
//
// Steps, in order: resolve the selection (aborting the whole run on any
// resolver failure), fold devcontainer patches onto the base's fragment,
// fold service fragments and prune dangling depends_on, concatenate
// environment templates, apply the port offset, and build the manifest.
// Resolver errors are returned unmodified so callers can inspect the typed
// failures; merge-level type mismatches are never errors, they resolve
// last-writer-wins and are logged at info level.
func Compose(req Request, log zerolog.Logger) (*Result, error) {
	resolved, err := resolve.ResolveWithLogger(req.Selection, req.Registry, log)
	if err != nil {
		return nil, err
	}

	// An overlay that does not support the base kind is kept — it may be a
	// transitive requirement — but flagged for the user.
	for _, id := range resolved.Overlays {
		meta, _ := req.Registry.Lookup(id)
		if !meta.SupportsBase(req.Base.Kind) {
			log.Warn().Str("overlay", id).Str("base", req.Base.Kind).
				Msg("overlay does not declare support for this base template")
		}
	}

	mergeOpts := &merge.Options{
		Conflict: func(path string, target, source merge.Kind) {
			log.Info().Str("path", path).
				Str("target", target.String()).Str("source", source.String()).
				Msg("fragment type mismatch; later overlay wins")
		},
	}

	devDoc := foldDevcontainer(req, resolved, mergeOpts)
	svcDoc := foldServices(req, resolved, mergeOpts)
	envText := foldEnvTemplates(req, resolved)

	if req.PortOffset != 0 {
		applyPortOffset(devDoc, svcDoc, req.PortOffset)
		envText = port.ApplyEnvText(envText, req.PortOffset)
	}

	manifest := model.CompositionManifest{
		Version:       model.ManifestVersion,
		RunID:         uuid.NewString(),
		Generated:     time.Now().UTC(),
		BaseTemplate:  req.Base.Kind,
		BaseImage:     req.Base.Image,
		Overlays:      resolved.Overlays,
		PortOffset:    req.PortOffset,
		Preset:        req.Preset,
		PresetChoices: req.PresetChoices,
		ContainerName: req.ContainerName,
		OutputPath:    req.OutputDir,
	}

	return &Result{
		Devcontainer: devDoc,
		Services:     svcDoc,
		EnvText:      envText,
		Suggested:    resolved.Suggested,
		Manifest:     manifest,
	}, nil
}

// foldDevcontainer builds the merged devcontainer document: the base
// template's own fragment is the initial accumulator, and each resolved
// overlay's patch folds in via deep merge, in resolved order.
func foldDevcontainer(req Request, resolved model.ResolvedSelection, opts *merge.Options) map[string]interface{} {
	acc := merge.FromMap(req.Base.Devcontainer)

	for _, id := range resolved.Overlays {
		o, _ := req.Registry.Get(id)
		if o.Devcontainer == nil {
			continue
		}
		acc = merge.Merge(acc, merge.FromMap(o.Devcontainer), opts)
	}

	doc := acc.ToMap()

	// Identity fields: the caller's explicit container name wins, then the
	// base template's display name; the base image backfills a document
	// that has neither image nor build nor compose reference.
	if req.ContainerName != "" {
		doc["name"] = req.ContainerName
	} else if _, ok := doc["name"]; !ok && req.Base.Name != "" {
		doc["name"] = req.Base.Name
	}
	if _, hasImage := doc["image"]; !hasImage {
		_, hasBuild := doc["build"]
		_, hasCompose := doc["dockerComposeFile"]
		if !hasBuild && !hasCompose && req.Base.Image != "" {
			doc["image"] = req.Base.Image
		}
	}

	enrichPortsAttributes(doc, req, resolved)

	return doc
}

// enrichPortsAttributes backfills portsAttributes labels from the resolved
// overlays' port descriptors. Attributes already present in the merged
// document are left alone; descriptors only fill gaps.
func enrichPortsAttributes(doc map[string]interface{}, req Request, resolved model.ResolvedSelection) {
	var attrs map[string]interface{}
	if existing, ok := doc["portsAttributes"].(map[string]interface{}); ok {
		attrs = existing
	}

	for _, id := range resolved.Overlays {
		meta, _ := req.Registry.Lookup(id)
		for _, pd := range meta.Ports {
			if pd.Description == "" {
				continue
			}
			key := strconv.Itoa(pd.Port)
			if _, present := attrs[key]; present {
				continue
			}
			if attrs == nil {
				attrs = make(map[string]interface{})
			}
			attrs[key] = map[string]interface{}{"label": pd.Description}
		}
	}

	if attrs != nil {
		doc["portsAttributes"] = attrs
	}
}

// foldServices builds the merged multi-service document and prunes
// depends_on entries that reference services absent from the final
// composition (e.g., an optional link to an overlay that was not selected).
func foldServices(req Request, resolved model.ResolvedSelection, opts *merge.Options) map[string]interface{} {
	acc := merge.FromMap(req.Base.Services)

	for _, id := range resolved.Overlays {
		o, _ := req.Registry.Get(id)
		if o.Services == nil {
			continue
		}
		acc = merge.Merge(acc, merge.FromMap(o.Services), opts)
	}

	doc := acc.ToMap()

	services, ok := doc["services"].(map[string]interface{})
	if !ok || len(services) == 0 {
		return doc
	}

	known := make(map[string]bool, len(services))
	for name := range services {
		known[name] = true
	}

	for name, def := range services {
		svc, ok := def.(map[string]interface{})
		if !ok {
			continue
		}
		deps, has := svc["depends_on"]
		if !has {
			continue
		}
		filtered, keep := merge.FilterDependsOn(merge.FromAny(deps), known)
		if !keep {
			// Every referenced service is gone: drop the clause entirely
			// rather than leaving an empty one behind.
			delete(svc, "depends_on")
		} else {
			svc["depends_on"] = filtered.ToAny()
		}
		services[name] = svc
	}

	return doc
}

// foldEnvTemplates concatenates the base's and every resolved overlay's
// environment template into one blob, fragments separated by a single
// blank line, overlay order preserved.
func foldEnvTemplates(req Request, resolved model.ResolvedSelection) string {
	var parts []string
	if req.Base.EnvTemplate != "" {
		parts = append(parts, strings.TrimRight(req.Base.EnvTemplate, "\n"))
	}

	for _, id := range resolved.Overlays {
		o, _ := req.Registry.Get(id)
		if o.EnvTemplate == "" {
			continue
		}
		parts = append(parts, strings.TrimRight(o.EnvTemplate, "\n"))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// applyPortOffset rewrites every host-facing port in both documents:
// service port mappings, the devcontainer's forwardPorts integers and
// appPort mappings, and portsAttributes keys (re-keyed so labels follow
// their shifted ports).
func applyPortOffset(devDoc, svcDoc map[string]interface{}, offset int) {
	offsetForwardPorts(devDoc, offset)
	offsetAppPort(devDoc, offset)
	shiftPortsAttributeKeys(devDoc, offset)
	offsetServicePorts(svcDoc, offset)
}

// offsetForwardPorts shifts integer entries of the forwardPorts list.
// String entries ("service:port") reference container-side ports and are
// left untouched.
func offsetForwardPorts(doc map[string]interface{}, offset int) {
	fp, ok := doc["forwardPorts"].([]interface{})
	if !ok {
		return
	}
	for i, v := range fp {
		if n, isInt := v.(int); isInt {
			fp[i] = n + offset
		}
	}
}

// offsetAppPort shifts the host side of appPort entries, which may be a
// single value or an array of ints and "host:container" strings.
func offsetAppPort(doc map[string]interface{}, offset int) {
	ap, ok := doc["appPort"]
	if !ok {
		return
	}
	switch v := ap.(type) {
	case []interface{}:
		for i, item := range v {
			v[i] = port.ApplyValue(item, offset)
		}
	default:
		doc["appPort"] = port.ApplyValue(v, offset)
	}
}

// shiftPortsAttributeKeys re-keys numeric portsAttributes entries so port
// metadata follows the shifted host ports. Non-numeric keys (e.g., the
// "*" wildcard) are preserved as-is.
func shiftPortsAttributeKeys(doc map[string]interface{}, offset int) {
	attrs, ok := doc["portsAttributes"].(map[string]interface{})
	if !ok {
		return
	}

	shifted := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		if n, err := strconv.Atoi(key); err == nil {
			shifted[strconv.Itoa(n+offset)] = value
		} else {
			shifted[key] = value
		}
	}
	doc["portsAttributes"] = shifted
}

// offsetServicePorts shifts the host side of every service's port mappings.
// Container-side ports are never altered; unparseable entries pass through.
func offsetServicePorts(doc map[string]interface{}, offset int) {
	services, ok := doc["services"].(map[string]interface{})
	if !ok {
		return
	}
	for _, def := range services {
		svc, ok := def.(map[string]interface{})
		if !ok {
			continue
		}
		ports, ok := svc["ports"].([]interface{})
		if !ok {
			continue
		}
		for i, p := range ports {
			ports[i] = port.ApplyValue(p, offset)
		}
	}
}
