package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/casekeeper/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending case store migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("status", false, "show migration status instead of applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if !status {
		if err := db.MigrateUp(ctx, database); err != nil {
			return err
		}
		app.log.Info().Str("driver", database.DriverName()).Msg("migrations applied")
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tAPPLIED\tAPPLIED AT")
	for _, s := range statuses {
		at := "-"
		if s.AppliedAt != nil {
			at = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%t\t%s\n", s.ID, s.Applied, at)
	}
	return w.Flush()
}
