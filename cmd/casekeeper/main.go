package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/solatis/casekeeper/cmd/casekeeper/cmd"
	"github.com/solatis/casekeeper/internal/core/api"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, api.ErrReportNotOK) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(api.ExitCode(err))
	}
}
