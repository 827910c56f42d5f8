// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"taxform-scan/internal/forms"

	"github.com/fatih/color"
)

// System renders CLI help for the flags and the form catalog
type System struct {
	out     io.Writer
	catalog *forms.Catalog
	colors  map[string]*color.Color
}

// NewSystem creates a new help system writing to out
func NewSystem(out io.Writer, catalog *forms.Catalog, noColor bool) *System {
	if noColor {
		color.NoColor = true
	}

	return &System{
		out:     out,
		catalog: catalog,
		colors: map[string]*color.Color{
			"title":   color.New(color.FgWhite, color.Bold),
			"header":  color.New(color.FgBlue, color.Bold),
			"item":    color.New(color.FgCyan),
			"example": color.New(color.FgMagenta),
		},
	}
}

// ShowGeneralHelp prints usage, every flag of fs and examples
func (h *System) ShowGeneralHelp(fs *flag.FlagSet) {
	h.colors["title"].Fprintln(h.out, "taxform-scan - IRS tax form extraction and validation")
	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "USAGE:")
	fmt.Fprintln(h.out, "  taxform-scan -file <document> [options]")
	fmt.Fprintln(h.out, "  taxform-scan -dir <directory> [options]")
	fmt.Fprintln(h.out, "  taxform-scan -text <text|-> [options]")
	fmt.Fprintln(h.out, "  taxform-scan -web | -mcp | -stats")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OPTIONS:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fs.VisitAll(func(f *flag.Flag) {
		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			name = "<" + name + ">"
		}
		fmt.Fprintf(w, "  -%s\t%s\t%s\n", f.Name, name, usage)
	})
	w.Flush()

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "EXAMPLES:")
	for _, ex := range []string{
		"taxform-scan -file w2.pdf",
		"taxform-scan -dir ./scans -workers 8 -format json -xlsx report.xlsx",
		"taxform-scan -text - -form-type 1040 < return.txt",
		"taxform-scan -file return.png -efile",
		"taxform-scan -help forms",
	} {
		h.colors["example"].Fprintln(h.out, "  "+ex)
	}

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "CONFIGURATION:")
	fmt.Fprintln(h.out, "  Project config: taxform.yaml or .taxform-scan.yaml (in current directory)")
	fmt.Fprintln(h.out, "  User config:    $XDG_CONFIG_HOME/taxform-scan/config.yaml")
	fmt.Fprintln(h.out, "  Environment:    DB_TYPE, DATABASE_URL, TESSERACT_PATH, ENABLE_EFILING, AUTO_EFILE, LOG_LEVEL, ...")
}

// ShowFormsHelp lists every supported form type
func (h *System) ShowFormsHelp() {
	h.colors["title"].Fprintln(h.out, "Supported Forms")
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TYPE\tNAME\tREQUIRED FIELDS")
	for _, def := range h.catalog.Definitions() {
		fmt.Fprintf(w, "  %s\t%s\t%d\n", def.Type, def.Name, len(def.RequiredFields))
	}
	w.Flush()

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Use -help <form type> for the rules of one form.")
}

// ShowFormHelp prints the recognition data and rules of one form. It
// returns false when the name is not a known form type.
func (h *System) ShowFormHelp(name string) bool {
	ft, ok := h.catalog.Resolve(name)
	if !ok {
		return false
	}
	def, ok := h.catalog.Get(ft)
	if !ok {
		return false
	}

	h.colors["title"].Fprintf(h.out, "Form %s: %s\n", def.Type, def.Name)
	fmt.Fprintln(h.out)

	h.section("Required fields:", names(def.RequiredFields))
	h.section("Optional fields:", names(def.OptionalFields))
	h.section("Keywords:", def.Keywords)
	h.section("Headers:", def.Headers)

	if len(def.Ranges) > 0 {
		h.colors["header"].Fprintln(h.out, "Value ranges:")
		for _, r := range def.Ranges {
			fmt.Fprintf(h.out, "  %s: %.2f to %.2f\n", h.colors["item"].Sprint(r.Field), r.Min, r.Max)
		}
		fmt.Fprintln(h.out)
	}
	return true
}

// Show dispatches a -help topic
func (h *System) Show(topic string, fs *flag.FlagSet) bool {
	switch strings.ToLower(strings.TrimSpace(topic)) {
	case "", "general":
		h.ShowGeneralHelp(fs)
		return true
	case "forms":
		h.ShowFormsHelp()
		return true
	}
	return h.ShowFormHelp(topic)
}

func (h *System) section(title string, items []string) {
	if len(items) == 0 {
		return
	}
	h.colors["header"].Fprintln(h.out, title)
	for _, item := range items {
		fmt.Fprintf(h.out, "  %s\n", h.colors["item"].Sprint(item))
	}
	fmt.Fprintln(h.out)
}

func names[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
