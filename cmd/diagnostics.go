// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"fmt"
	"io"

	"github.com/jdfalk/voter-search/internal/config"
	"github.com/jdfalk/voter-search/internal/database"
	"github.com/spf13/cobra"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging helpers",
		Long:  "Diagnostic utilities for inspecting the voter database.",
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show voter and tag counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openStore(); err != nil {
				return err
			}
			defer database.CloseStore()
			return runDiagnosticsStats(cmd.OutOrStdout(), database.GlobalStore)
		},
	}
)

func init() {
	diagnosticsCmd.AddCommand(statsCmd)
}

// storeCounter is the slice of database.Store that stats reads.
type storeCounter interface {
	CountVoters() (int, error)
	CountTags() (int, error)
}

func runDiagnosticsStats(w io.Writer, store storeCounter) error {
	voters, err := store.CountVoters()
	if err != nil {
		return fmt.Errorf("failed to count voters: %w", err)
	}
	tags, err := store.CountTags()
	if err != nil {
		return fmt.Errorf("failed to count tags: %w", err)
	}

	fmt.Fprintf(w, "Database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)
	fmt.Fprintf(w, "Voters:   %d\n", voters)
	fmt.Fprintf(w, "Tags:     %d\n", tags)
	return nil
}
