package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/casekeeper/internal/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a case as an E2B(R3) document",
	Long: `Render a case as an E2B(R3) document. With --in the case is patched into
the existing document; otherwise a fresh document is generated. Cases
loaded with --case-id keep the exported document in the store.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("case-file", "", "case file (JSON or YAML)")
	exportCmd.Flags().String("case-id", "", "case ID in the store")
	exportCmd.Flags().String("in", "", "existing document to patch")
	exportCmd.Flags().String("out", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	caseFile, _ := cmd.Flags().GetString("case-file")
	caseID, _ := cmd.Flags().GetString("case-id")
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")

	explicit, err := explicitProfile()
	if err != nil {
		return err
	}

	svc, store, closeDB, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	c, err := loadCase(ctx, svc, caseFile, caseID)
	if err != nil {
		return err
	}
	p, _ := svc.ResolveProfile(explicit, c)

	var raw []byte
	if in != "" {
		existing, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		raw, err = svc.PatchCase(existing, p, c)
		if err != nil {
			return fmt.Errorf("failed to patch %s: %w", in, err)
		}
	} else {
		raw, err = svc.ExportCase(p, c)
		if err != nil {
			return fmt.Errorf("failed to export case: %w", err)
		}
	}

	if caseID != "" && store != nil {
		if err := store.SaveDocument(ctx, types.CaseID(caseID), p, raw); err != nil {
			return err
		}
	}

	app.log.Info().Str("profile", string(p)).Int("bytes", len(raw)).Msg("case exported")
	return writeOutput(out, raw)
}
