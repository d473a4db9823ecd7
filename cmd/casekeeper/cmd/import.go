package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/casekeeper/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Read a document into case JSON",
	Long: `Read a document into case JSON on stdout. With --section only that
section's normalized values are printed.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("in", "", "document to read")
	importCmd.Flags().String("section", "", "print one section's values only")
	importCmd.MarkFlagRequired("in")
}

func runImport(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	sectionName, _ := cmd.Flags().GetString("section")

	p, err := explicitProfile()
	if err != nil {
		return err
	}
	if p == "" {
		p = types.ProfileICH
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	svc, _, closeDB, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	if sectionName != "" {
		section, err := types.ParseSection(sectionName)
		if err != nil {
			return err
		}
		values, _, err := svc.ParseSection(raw, section, p)
		if err != nil {
			return err
		}
		if values == nil {
			values = []types.Values{}
		}
		return writeJSON(values)
	}

	c, err := svc.ParseCase(raw, p)
	if err != nil {
		return err
	}
	return writeJSON(c)
}
