// Package cli — inspect.go implements the "superpose inspect" command.
//
// The inspect command shows a single overlay in full: its metadata
// (description, supports, requires/suggests/conflicts edges, port
// descriptors) plus which fragment files the overlay ships. It is the
// detail view behind the list command's table.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veggerby/container-superposition-sub002/internal/model"
	"github.com/veggerby/container-superposition-sub002/internal/overlay"
)

// inspectFlags holds the flag values for the inspect command.
type inspectFlags struct {
	// overlaysDir is where the registry is loaded from.
	overlaysDir string
}

// NewInspectCommand creates the "inspect" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInspectCommand() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect <overlay-id>",
		Short: "Show full details for one overlay",
		Long: `Show an overlay's full metadata and which fragment files it provides.

Examples:
  superpose inspect postgres
  superpose inspect otel-collector --json`,

		// Args validates that exactly one positional argument (the overlay
		// ID) is provided.
		Args: cobra.ExactArgs(1),

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.overlaysDir, "overlays-dir", "overlays",
		"Directory containing overlay definitions")

	return cmd
}

// runInspect loads the registry, looks up the requested overlay, and
// outputs it in the appropriate format.
func runInspect(id string, flags *inspectFlags) error {
	reg, err := overlay.LoadRegistry(flags.overlaysDir)
	if err != nil {
		return err
	}

	o, ok := reg.Get(id)
	if !ok {
		// The same typed error the resolver raises, so scripts see exit
		// code 2 whether the unknown ID came from generate or inspect.
		return &model.UnknownOverlayError{ID: id}
	}

	printInspectResult(o)
	return nil
}

// overlayFragments reports which fragment files the overlay ships.
type overlayFragments struct {
	Devcontainer bool `json:"devcontainer"`
	Services     bool `json:"services"`
	EnvTemplate  bool `json:"envTemplate"`
}

// fragmentsOf summarizes an overlay's fragment presence.
func fragmentsOf(o *overlay.Overlay) overlayFragments {
	return overlayFragments{
		Devcontainer: o.Devcontainer != nil,
		Services:     o.Services != nil,
		EnvTemplate:  o.EnvTemplate != "",
	}
}

// printInspectResult outputs the overlay detail in text or JSON format,
// depending on the global --json flag.
func printInspectResult(o *overlay.Overlay) {
	if IsJSONOutput() {
		printInspectResultJSON(o)
	} else {
		printInspectResultText(o)
	}
}

// printInspectResultJSON outputs the overlay's metadata and fragment
// summary as structured JSON.
func printInspectResultJSON(o *overlay.Overlay) {
	type resultJSON struct {
		model.OverlayMetadata
		Fragments overlayFragments `json:"fragments"`
	}

	result := resultJSON{
		OverlayMetadata: o.Meta,
		Fragments:       fragmentsOf(o),
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printInspectResultText outputs the overlay detail as human-readable text.
func printInspectResultText(o *overlay.Overlay) {
	meta := o.Meta

	fmt.Printf("%s (%s)\n", meta.ID, meta.Category)
	if meta.Name != "" && meta.Name != meta.ID {
		fmt.Printf("  Name:        %s\n", meta.Name)
	}
	if meta.Description != "" {
		fmt.Printf("  Description: %s\n", meta.Description)
	}
	if len(meta.Supports) > 0 {
		fmt.Printf("  Supports:    %s\n", strings.Join(meta.Supports, ", "))
	}
	if len(meta.Requires) > 0 {
		fmt.Printf("  Requires:    %s\n", strings.Join(meta.Requires, ", "))
	}
	if len(meta.Suggests) > 0 {
		fmt.Printf("  Suggests:    %s\n", strings.Join(meta.Suggests, ", "))
	}
	if len(meta.Conflicts) > 0 {
		fmt.Printf("  Conflicts:   %s\n", strings.Join(meta.Conflicts, ", "))
	}

	if len(meta.Ports) > 0 {
		fmt.Println()
		fmt.Println("  Ports:")
		for _, pd := range meta.Ports {
			line := fmt.Sprintf("    %d", pd.Port)
			if pd.Service != "" {
				line += fmt.Sprintf("  service=%s", pd.Service)
			}
			if pd.Description != "" {
				line += fmt.Sprintf("  (%s)", pd.Description)
			}
			fmt.Println(line)
		}
	}

	frags := fragmentsOf(o)
	fmt.Println()
	fmt.Println("  Fragments:")
	fmt.Printf("    devcontainer patch: %s\n", yesNo(frags.Devcontainer))
	fmt.Printf("    services:           %s\n", yesNo(frags.Services))
	fmt.Printf("    env template:       %s\n", yesNo(frags.EnvTemplate))
}

// yesNo renders a fragment-presence flag for the text view.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
