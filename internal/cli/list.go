// Package cli — list.go implements the "superpose list" command.
//
// The list command displays every overlay in the registry with its
// category, dependency edges, and declared ports, as a text table or a
// JSON array depending on the --json flag. An optional --category flag
// filters by overlay category.
package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veggerby/container-superposition-sub002/internal/model"
	"github.com/veggerby/container-superposition-sub002/internal/overlay"
)

// listFlags holds the flag values for the list command.
// These are bound to cobra flags in NewListCommand.
type listFlags struct {
	// category filters overlays by category. Empty means all.
	category string

	// overlaysDir is where the registry is loaded from.
	overlaysDir string
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available overlays",
		Long: `List every overlay in the registry with its category, dependency
edges, and declared ports.

Examples:
  superpose list
  superpose list --category database
  superpose list --json`,

		// No positional arguments are required for the list command.
		Args: cobra.NoArgs,

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(flags)
		},
	}

	cmd.Flags().StringVar(&flags.category, "category", "",
		"Filter by category: language, database, observability, cloud, dev")
	cmd.Flags().StringVar(&flags.overlaysDir, "overlays-dir", "overlays",
		"Directory containing overlay definitions")

	return cmd
}

// runList is the main logic function for the list command.
// It loads the registry, applies the category filter, and outputs results
// in the appropriate format.
func runList(flags *listFlags) error {
	// Step 1: Validate the --category flag value.
	if flags.category != "" {
		if _, err := model.ParseCategory(flags.category); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid category %q", flags.category), err)
		}
	}

	// Step 2: Load the registry.
	reg, err := overlay.LoadRegistry(flags.overlaysDir)
	if err != nil {
		return err
	}

	// Step 3: Collect metadata in registry order, applying the filter.
	var metas []*model.OverlayMetadata
	for _, id := range reg.IDs() {
		meta, _ := reg.Lookup(id)
		if flags.category != "" && meta.Category.String() != flags.category {
			continue
		}
		metas = append(metas, meta)
	}

	// Step 4: Sort by category rank then ID, so related overlays group
	// together the same way compositions order them.
	sort.SliceStable(metas, func(i, j int) bool {
		if metas[i].Category.Rank() != metas[j].Category.Rank() {
			return metas[i].Category.Rank() < metas[j].Category.Rank()
		}
		return metas[i].ID < metas[j].ID
	})

	// Step 5: Output.
	printListResult(metas)
	return nil
}

// printListResult outputs the overlay list in text or JSON format,
// depending on the global --json flag.
func printListResult(metas []*model.OverlayMetadata) {
	if IsJSONOutput() {
		printListResultJSON(metas)
	} else {
		printListResultText(metas)
	}
}

// listOverlayJSON is the JSON output structure for a single overlay in
// the list command.
type listOverlayJSON struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Requires  []string `json:"requires,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
	Ports     []int    `json:"ports,omitempty"`
}

// printListResultJSON outputs the overlay list as structured JSON.
// The top-level key is "overlays" containing an array of overlay objects.
func printListResultJSON(metas []*model.OverlayMetadata) {
	type resultJSON struct {
		Overlays []listOverlayJSON `json:"overlays"`
	}

	result := resultJSON{
		// Empty slice instead of nil so JSON output shows [] rather than
		// null when the registry is empty.
		Overlays: make([]listOverlayJSON, 0, len(metas)),
	}

	for _, meta := range metas {
		entry := listOverlayJSON{
			ID:        meta.ID,
			Name:      meta.Name,
			Category:  meta.Category.String(),
			Requires:  meta.Requires,
			Conflicts: meta.Conflicts,
		}
		for _, pd := range meta.Ports {
			entry.Ports = append(entry.Ports, pd.Port)
		}
		result.Overlays = append(result.Overlays, entry)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the overlay list as a human-readable text
// table with aligned columns.
//
// The table format is:
//
//	ID             CATEGORY        REQUIRES        PORTS
//	python         language        -               -
//	postgres       database        -               5432
func printListResultText(metas []*model.OverlayMetadata) {
	if len(metas) == 0 {
		fmt.Println("No overlays found.")
		return
	}

	fmt.Printf("%-20s %-15s %-25s %s\n", "ID", "CATEGORY", "REQUIRES", "PORTS")

	for _, meta := range metas {
		fmt.Printf("%-20s %-15s %-25s %s\n",
			meta.ID,
			meta.Category.String(),
			dashIfEmpty(strings.Join(meta.Requires, ",")),
			dashIfEmpty(FormatPortList(meta.Ports)),
		)
	}
}

// FormatPortList converts port descriptors into a comma-separated string
// of port numbers, numerically sorted. Returns "" when none are declared.
//
// This function is exported for testing purposes (tested in list_test.go).
func FormatPortList(descriptors []model.PortDescriptor) string {
	if len(descriptors) == 0 {
		return ""
	}

	// Sort numerically: lexicographic order would put "15432" before "3000".
	nums := make([]int, 0, len(descriptors))
	for _, pd := range descriptors {
		nums = append(nums, pd.Port)
	}
	sort.Ints(nums)

	ports := make([]string, 0, len(nums))
	for _, p := range nums {
		ports = append(ports, strconv.Itoa(p))
	}
	return strings.Join(ports, ",")
}

// dashIfEmpty substitutes "-" for an empty table cell.
func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
