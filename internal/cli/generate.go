// Package cli — generate.go implements the "superpose generate" command.
//
// The generate command is the primary user-facing operation. It loads the
// overlay registry and base template from disk, runs one composition (resolve
// selection, fold fragments, apply port offset, build manifest), and writes
// the result under <output>/.devcontainer/.
//
// Orchestration steps:
//  1. Validate inputs (at least one overlay, non-negative offset)
//  2. Load the overlay registry from --overlays-dir
//  3. Load the base template from --bases-dir
//  4. Compose in memory (nothing is written if any step fails)
//  5. Write outputs, or print the merged devcontainer with --dry-run
//  6. Report the result (text or JSON)
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veggerby/container-superposition-sub002/internal/composer"
	"github.com/veggerby/container-superposition-sub002/internal/model"
	"github.com/veggerby/container-superposition-sub002/internal/overlay"
)

// generateFlags holds the flag values for the generate command.
// These are bound to cobra flags in NewGenerateCommand.
type generateFlags struct {
	overlays    []string // --overlay: selected overlay IDs (repeatable)
	base        string   // --base: base template kind
	overlaysDir string   // --overlays-dir: overlay registry directory
	basesDir    string   // --bases-dir: base template directory
	output      string   // --output: target project directory
	portOffset  int      // --port-offset: added to every host-facing port
	preset      string   // --preset: preset label recorded in the manifest
	name        string   // --name: container display name override
	dryRun      bool     // --dry-run: print instead of writing
}

// NewGenerateCommand creates the "generate" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewGenerateCommand() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose a devcontainer configuration from overlays",
		Long: `Compose a devcontainer configuration by folding the selected overlays
onto a base template.

Overlays required by the selection are pulled in automatically; overlays
that conflict abort the run before anything is written.

Examples:
  superpose generate --overlay python --overlay postgres
  superpose generate --overlay go --base universal --port-offset 100
  superpose generate --overlay python --dry-run
  superpose generate --overlay otel-demo --output ~/src/demo --name demo`,

		// No positional arguments; the selection arrives via --overlay.
		Args: cobra.NoArgs,

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.overlays, "overlay", nil, "Overlay ID to include (repeatable)")
	cmd.Flags().StringVar(&flags.base, "base", "debian", "Base template kind")
	cmd.Flags().StringVar(&flags.overlaysDir, "overlays-dir", "overlays", "Directory containing overlay definitions")
	cmd.Flags().StringVar(&flags.basesDir, "bases-dir", "base", "Directory containing base templates")
	cmd.Flags().StringVar(&flags.output, "output", ".", "Project directory to write .devcontainer/ into")
	cmd.Flags().IntVar(&flags.portOffset, "port-offset", 0, "Offset added to every host-facing port")
	cmd.Flags().StringVar(&flags.preset, "preset", "", "Preset label to record in the manifest")
	cmd.Flags().StringVar(&flags.name, "name", "", "Container display name (default: base template name)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the merged devcontainer.json instead of writing files")

	return cmd
}

// runGenerate is the main orchestration function for the generate command.
func runGenerate(flags *generateFlags) error {
	// Step 1: Validate inputs before touching the filesystem.
	if len(flags.overlays) == 0 {
		return model.NewCLIError(model.ExitGeneralError, "at least one --overlay is required")
	}
	if flags.portOffset < 0 {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("--port-offset must be non-negative, got %d", flags.portOffset))
	}

	log := newLogger()

	// Step 2: Load the overlay registry. Loader failures already carry
	// the invalid-overlay-directory exit code.
	reg, err := overlay.LoadRegistry(flags.overlaysDir)
	if err != nil {
		return err
	}
	log.Debug().Int("overlays", reg.Len()).Str("dir", flags.overlaysDir).Msg("registry loaded")

	// Step 3: Load the base template.
	base, err := overlay.LoadBaseTemplate(flags.basesDir, flags.base)
	if err != nil {
		return err
	}
	log.Debug().Str("base", base.Kind).Str("image", base.Image).Msg("base template loaded")

	// Step 4: Compose entirely in memory. Resolver failures (unknown
	// overlay, conflict) surface here with nothing written.
	res, err := composer.Compose(composer.Request{
		Selection:     flags.overlays,
		Registry:      reg,
		Base:          base,
		PortOffset:    flags.portOffset,
		Preset:        flags.preset,
		ContainerName: flags.name,
		OutputDir:     flags.output,
	}, log)
	if err != nil {
		return err
	}

	// Step 5: Emit. Dry-run prints the merged devcontainer document to
	// stdout and writes nothing.
	if flags.dryRun {
		data, marshalErr := json.MarshalIndent(res.Devcontainer, "", "  ")
		if marshalErr != nil {
			return model.WrapCLIError(model.ExitGeneralError, "cannot serialize devcontainer document", marshalErr)
		}
		fmt.Println(string(data))
		return nil
	}

	if err := composer.WriteOutputs(res, flags.output); err != nil {
		return err
	}

	// Step 6: Report.
	printGenerateResult(res)
	return nil
}

// printGenerateResult outputs the generate result in text or JSON format,
// depending on the global --json flag.
func printGenerateResult(res *composer.Result) {
	if IsJSONOutput() {
		printGenerateResultJSON(res)
	} else {
		printGenerateResultText(res)
	}
}

// printGenerateResultJSON outputs the run's manifest plus the suggested
// overlays as structured JSON.
func printGenerateResultJSON(res *composer.Result) {
	type resultJSON struct {
		Manifest  model.CompositionManifest `json:"manifest"`
		Suggested []string                  `json:"suggested"`
	}

	result := resultJSON{
		Manifest: res.Manifest,
		// Empty slice instead of nil so JSON output shows [] rather than null.
		Suggested: append([]string{}, res.Suggested...),
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printGenerateResultText outputs the run summary as human-readable text.
func printGenerateResultText(res *composer.Result) {
	m := res.Manifest
	fmt.Printf("Composed %d overlay(s) onto base %q\n", len(m.Overlays), m.BaseTemplate)
	fmt.Printf("  Overlays:  %s\n", strings.Join(m.Overlays, ", "))
	if m.PortOffset != 0 {
		fmt.Printf("  Offset:    +%d\n", m.PortOffset)
	}
	fmt.Printf("  Output:    %s\n", composer.OutputDir(m.OutputPath))

	if len(res.Suggested) > 0 {
		fmt.Println()
		fmt.Printf("  Suggested additions: %s\n", strings.Join(res.Suggested, ", "))
	}
}
