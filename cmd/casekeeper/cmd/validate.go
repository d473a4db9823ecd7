package cmd

import (
	"github.com/spf13/cobra"

	"github.com/solatis/casekeeper/internal/core/api"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a case against the business rules of a profile",
	Long: `Validate a case and print the JSON report. Exits with status 2 when
the report holds blocking issues.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("case-file", "", "case file (JSON or YAML)")
	validateCmd.Flags().String("case-id", "", "case ID in the store")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	caseFile, _ := cmd.Flags().GetString("case-file")
	caseID, _ := cmd.Flags().GetString("case-id")

	explicit, err := explicitProfile()
	if err != nil {
		return err
	}

	svc, _, closeDB, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	c, err := loadCase(ctx, svc, caseFile, caseID)
	if err != nil {
		return err
	}
	report, err := svc.Validate(explicit, c)
	if err != nil {
		return err
	}

	if err := writeJSON(report); err != nil {
		return err
	}
	if !report.OK {
		return api.ErrReportNotOK
	}
	return nil
}
