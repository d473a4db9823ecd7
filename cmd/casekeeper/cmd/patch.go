package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/casekeeper/internal/types"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Write one section record into an existing document",
	Long: `Write one section record into an existing document, leaving every node
the section does not address untouched. For repeating sections the record
file may hold a JSON array; occurrences are correlated by id.`,
	RunE: runPatch,
}

func init() {
	rootCmd.AddCommand(patchCmd)
	patchCmd.Flags().String("in", "", "document to patch")
	patchCmd.Flags().String("section", "", "section name (e.g. patient, reaction)")
	patchCmd.Flags().String("record", "", "record file (JSON object, or array for repeating sections)")
	patchCmd.Flags().String("out", "", "output file (default stdout)")
	patchCmd.MarkFlagRequired("in")
	patchCmd.MarkFlagRequired("section")
	patchCmd.MarkFlagRequired("record")
}

func runPatch(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	sectionName, _ := cmd.Flags().GetString("section")
	recordFile, _ := cmd.Flags().GetString("record")
	out, _ := cmd.Flags().GetString("out")

	section, err := types.ParseSection(sectionName)
	if err != nil {
		return err
	}
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
	data, err := os.ReadFile(recordFile)
	if err != nil {
		return err
	}

	svc, _, closeDB, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	var patched []byte
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		recs, err := decodeRecords(section, trimmed)
		if err != nil {
			return err
		}
		patched, err = svc.PatchList(raw, p, section, recs)
		if err != nil {
			return err
		}
	} else {
		rec, err := types.NewRecord(section)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to decode %s: %w", recordFile, err)
		}
		patched, err = svc.PatchSection(raw, p, rec)
		if err != nil {
			return err
		}
	}

	return writeOutput(out, patched)
}

func decodeRecords(section types.Section, data []byte) ([]types.SectionRecord, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	recs := make([]types.SectionRecord, 0, len(items))
	for i, item := range items {
		rec, err := types.NewRecord(section)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(item, rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
