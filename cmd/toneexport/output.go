package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"toneexport/internal/export"
	"toneexport/internal/services"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.Faint)
)

func printSummary(w io.Writer, result *export.Result) {
	successColor.Fprintf(w, "Exported %s\n", result.OutputPath)
	fmt.Fprintln(w, result.Summary())
	labelColor.Fprintf(w, "run %s in %s\n", result.RunID, result.Elapsed.Round(10*time.Millisecond))
}

// printError writes the single failure line shown to the user.
func printError(w io.Writer, err error) {
	label := "Error"
	if kind := services.Kind(err); kind != "" && kind != "internal" {
		label = "Error (" + kind + ")"
	}
	errorColor.Fprint(w, label+":")
	fmt.Fprintln(w, " "+err.Error())
}
