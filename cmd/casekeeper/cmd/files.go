package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/casekeeper/internal/core/api"
	"github.com/solatis/casekeeper/internal/types"
)

// decodeFile reads JSON, or YAML for .yaml/.yml files, into v.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(v)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// loadCase reads a case from --case-file or, with --case-id, from the store.
func loadCase(ctx context.Context, svc *api.Service, caseFile, caseID string) (*types.Case, error) {
	switch {
	case caseFile != "" && caseID != "":
		return nil, fmt.Errorf("--case-file and --case-id are mutually exclusive")
	case caseFile != "":
		var c types.Case
		if err := decodeFile(caseFile, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case caseID != "":
		id, err := types.ParseCaseID(caseID)
		if err != nil {
			return nil, err
		}
		return svc.LoadCase(ctx, id)
	default:
		return nil, fmt.Errorf("--case-file or --case-id required")
	}
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
