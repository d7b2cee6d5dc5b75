package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/registry"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List all game profiles",
	Long:  `Shows the game profiles registered with the engine and their baseline pacing.`,
	Args:  cobra.NoArgs,
	Run:   runProfiles,
}

func runProfiles(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	profiles := registry.List()

	if len(profiles) == 0 {
		fmt.Fprintln(out, "No profiles available.")
		return
	}

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, p := range profiles {
		if len(p.ID) > maxIDLen {
			maxIDLen = len(p.ID)
		}
	}

	fmt.Fprintf(out, "  %-*s  %-6s  %-6s  %s\n", maxIDLen, "ID", "Spawn", "Life", "Description")
	fmt.Fprintf(out, "  %-*s  %-6s  %-6s  %s\n", maxIDLen, "--", "-----", "----", "-----------")

	for _, info := range profiles {
		p, err := registry.Create(info.ID)
		if err != nil {
			continue
		}
		a := p.Arena()
		fmt.Fprintf(out, "  %-*s  %-6s  %-6s  %s\n", maxIDLen, info.ID,
			fmt.Sprintf("%.0fms", a.SpawnIntervalMs), fmt.Sprintf("%.0fms", a.TargetLifeMs), info.Description)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use 'pacer simulate --profile <id>' to run one.")
}
