package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hardenctl/hardenctl/internal/differ"
	"github.com/hardenctl/hardenctl/internal/store"
	"github.com/spf13/cobra"
)

// diffCmd
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare a container against one of its backups",
	Long: `Show what changed in a policy container since a backup snapshot was
taken. Without --backup the most recent backup is used.`,
	SilenceUsage: true,
	RunE:         runDiff,
}

var (
	diffContainer string
	diffBackupID  string
	diffDBPath    string
	diffOutput    string
)

func init() {
	diffCmd.Flags().StringVar(&diffContainer, "container", "", "Policy container id (required)")
	diffCmd.Flags().StringVar(&diffBackupID, "backup", "", "Backup id (defaults to the most recent)")
	diffCmd.Flags().StringVar(&diffDBPath, "db", "hardenctl.db", "Policy store database path")
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "text", "Output format: text or json")
}

// GetDiffCmd export
func GetDiffCmd() *cobra.Command {
	return diffCmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	if diffContainer == "" {
		return fmt.Errorf("--container is required")
	}

	st, err := store.OpenSQLite(diffDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	handle, before, err := st.LoadBackup(ctx, diffContainer, diffBackupID)
	if err != nil {
		return err
	}

	after, err := st.ContainerState(ctx, diffContainer)
	if err != nil {
		return err
	}

	result, err := differ.Compare(before, after)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if diffOutput == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "%sContainer:%s %s (backup %s, taken %s)\n\n",
		colorBold, colorReset, diffContainer, handle.ID, handle.TakenAt.Format("2006-01-02 15:04:05"))

	if !result.HasChanges {
		fmt.Fprintf(out, "  %s✓%s no changes since backup\n", colorGreen, colorReset)
		return nil
	}

	for _, change := range result.Changes {
		var marker, color string
		switch change.Type {
		case differ.ChangeAdded:
			marker, color = "+", colorGreen
		case differ.ChangeRemoved:
			marker, color = "-", colorRed
		default:
			marker, color = "~", colorYellow
		}
		fmt.Fprintf(out, "  %s%s%s %s: %s\n", color, marker, colorReset, change.Key, change.Summary)
	}

	fmt.Fprintf(out, "\n  %d change(s)\n", len(result.Changes))
	return nil
}
