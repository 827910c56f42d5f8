// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"taxform-scan/internal/config"
	"taxform-scan/internal/core"
	"taxform-scan/internal/efile"
	"taxform-scan/internal/export"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/help"
	"taxform-scan/internal/ingest"
	"taxform-scan/internal/mcpserver"
	"taxform-scan/internal/observability"
	"taxform-scan/internal/pipeline"
	"taxform-scan/internal/storage"
	"taxform-scan/internal/version"
	"taxform-scan/internal/web"

	"taxform-scan/internal/formatters"
	_ "taxform-scan/internal/formatters/csv"
	_ "taxform-scan/internal/formatters/json"
	_ "taxform-scan/internal/formatters/text"
	_ "taxform-scan/internal/formatters/yaml"

	"golang.org/x/term"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1 // at least one document failed
	exitUsage  = 2
)

// cliFlags holds command line flag values
type cliFlags struct {
	file        string
	dir         string
	text        string
	formType    string
	format      string
	configFile  string
	output      string
	workers     int
	store       string
	efile       bool
	efileStatus string
	stats       bool
	xlsx        string
	web         bool
	port        string
	mcp         bool
	verbose     bool
	debug       bool
	noColor     bool
	headers     bool
	version     bool
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("taxform-scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.file, "file", "", "Process a single document (PDF, image or text)")
	fs.StringVar(&f.dir, "dir", "", "Process every supported document in a directory")
	fs.StringVar(&f.text, "text", "", "Process already recognised text (use - to read stdin)")
	fs.StringVar(&f.formType, "form-type", "", "Form type hint: 1040, W2, 1099, SCHEDULE_C, 941, 1120")
	fs.StringVar(&f.format, "format", "", "Output format: "+strings.Join(formatters.List(), ", ")+" (default: text)")
	fs.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&f.output, "output", "", "Directory for JSON result files (default from config)")
	fs.IntVar(&f.workers, "workers", 0, "Parallel workers for -dir (default from config)")
	fs.StringVar(&f.store, "store", "", "Database type: sqlite, postgres or none (default from config)")
	fs.BoolVar(&f.efile, "efile", false, "Submit valid forms for e-filing after processing")
	fs.StringVar(&f.efileStatus, "efile-status", "", "Query the status of an e-filing submission id and exit")
	fs.BoolVar(&f.stats, "stats", false, "Print processing statistics and exit")
	fs.StringVar(&f.xlsx, "xlsx", "", "Write an XLSX report to this path")
	fs.BoolVar(&f.web, "web", false, "Start the HTTP API")
	fs.StringVar(&f.port, "port", "", "Port for -web (default from config)")
	fs.BoolVar(&f.mcp, "mcp", false, "Serve MCP tools over stdio")
	fs.BoolVar(&f.verbose, "verbose", false, "Include entities and amounts in output")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&f.headers, "header-detection", false, "Identify forms by their printed header before keyword scoring")
	fs.BoolVar(&f.version, "version", false, "Show version information")
	fs.Usage = func() {
		help.NewSystem(stderr, forms.Default(), !isTerminal(stderr)).ShowGeneralHelp(fs)
	}
	return fs
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := newFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	modes := 0
	for _, set := range []bool{f.file != "", f.dir != "", f.text != "", f.web, f.mcp, f.stats, f.efileStatus != ""} {
		if set {
			modes++
		}
	}
	if modes == 0 && !f.version {
		return nil, errors.New("one of -file, -dir, -text, -web, -mcp, -stats or -efile-status is required")
	}
	if modes > 1 {
		return nil, errors.New("-file, -dir, -text, -web, -mcp, -stats and -efile-status are mutually exclusive")
	}
	return f, nil
}

// applyFlags layers explicit flags over the loaded configuration
func applyFlags(cfg *config.Config, f *cliFlags) error {
	if f.format != "" {
		cfg.Defaults.Format = f.format
	}
	if f.output != "" {
		cfg.Defaults.OutputDir = f.output
	}
	if f.workers > 0 {
		cfg.Defaults.Workers = f.workers
	}
	if f.store != "" {
		cfg.Database.Type = strings.ToLower(f.store)
	}
	if f.efile {
		cfg.EFiling.Enabled = true
		cfg.EFiling.AutoEFile = true
	}
	if f.efileStatus != "" {
		cfg.EFiling.Enabled = true
	}
	if f.port != "" {
		p, err := strconv.Atoi(f.port)
		if err != nil {
			return fmt.Errorf("invalid port %q", f.port)
		}
		cfg.Web.Port = p
	}
	if f.debug {
		cfg.Defaults.LogLevel = "debug"
	}
	if f.noColor {
		cfg.Defaults.NoColor = true
	}
	if f.verbose {
		cfg.Defaults.Verbose = true
	}
	if f.headers {
		cfg.Extraction.HeaderDetection = true
	}
	return config.ValidateConfig(cfg)
}

// app bundles the wired components
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	processor *core.DocumentProcessor
	filer     *efile.Client
	closers   []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	catalog := forms.Default()
	if cfg.RulesFile != "" {
		c, err := forms.LoadCatalog(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	observer := observability.NewObserver(logger)
	popts := []pipeline.Option{pipeline.WithObserver(observer), pipeline.WithHeaderDetection(cfg.Extraction.HeaderDetection)}
	if !cfg.Extraction.Statistical {
		popts = append(popts, pipeline.WithoutStatistical())
	}
	if !cfg.Extraction.Labels {
		popts = append(popts, pipeline.WithoutLabels())
	}

	opts := []core.Option{core.WithObserver(observer)}

	if sc, ok := cfg.Storage(); ok {
		store, err := storage.Open(ctx, sc, logger)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", sc.Type, err)
		}
		a.closers = append(a.closers, store.Close)
		opts = append(opts, core.WithStore(store))
	}

	if cfg.EFiling.Enabled {
		client, err := efile.NewClient(cfg.EFile(), logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.filer = client
		a.closers = append(a.closers, client.Close)
		opts = append(opts, core.WithFiler(client, cfg.EFiling.AutoEFile))
	}

	a.processor = core.NewDocumentProcessor(
		ingest.NewExtractor(cfg.Ingest(), logger),
		pipeline.New(catalog, popts...),
		opts...)
	return a, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 && isHelpFlag(args[0]) {
		topic := ""
		if len(args) > 1 {
			topic = args[1]
		}
		h := help.NewSystem(stdout, forms.Default(), !isTerminal(stdout))
		if !h.Show(topic, newFlagSet(&cliFlags{}, stderr)) {
			fmt.Fprintf(stderr, "Error: no help for %q (try -help forms)\n", topic)
			return exitUsage
		}
		return exitOK
	}

	flags, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitUsage
	}
	if flags.version {
		fmt.Fprintln(stdout, version.Info())
		return exitOK
	}

	configPath := flags.configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return exitUsage
	}
	if err := applyFlags(cfg, flags); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if _, ok := formatters.Get(cfg.Defaults.Format); !ok {
		fmt.Fprintf(stderr, "Error: unsupported format %q (available: %s)\n", cfg.Defaults.Format, strings.Join(formatters.List(), ", "))
		return exitUsage
	}

	logger, err := observability.NewLogger(stderr, cfg.Defaults.LogLevel, cfg.Defaults.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	defer a.Close()

	switch {
	case flags.web:
		return a.serveWeb(ctx, stderr)
	case flags.mcp:
		return a.serveMCP(ctx, stderr)
	case flags.stats:
		return a.printStatistics(ctx, stdout, stderr)
	case flags.efileStatus != "":
		return a.printEfileStatus(ctx, flags.efileStatus, stdout, stderr)
	}

	hint, err := parseHint(a.processor.Pipeline().Catalog(), flags.formType)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	options := formatters.FormatterOptions{
		Verbose: cfg.Defaults.Verbose,
		NoColor: cfg.Defaults.NoColor || !isTerminal(stdout),
	}

	if flags.dir != "" {
		return a.runBatch(ctx, flags.dir, hint, flags.xlsx, options, stdout, stderr)
	}

	var (
		res     *core.DocumentResult
		procErr error
	)
	if flags.file != "" {
		res, procErr = a.processor.ProcessDocument(ctx, flags.file, hint)
	} else {
		text := flags.text
		if text == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				fmt.Fprintf(stderr, "Error reading stdin: %v\n", err)
				return exitFailed
			}
			text = string(data)
		}
		res, procErr = a.processor.ProcessText(ctx, "text-input", text, hint)
	}

	if res != nil {
		if err := a.emit(formatters.SingleReport(res), options, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
		if cfg.Defaults.OutputDir != "" {
			if path, err := core.SaveResult(cfg.Defaults.OutputDir, res, time.Now()); err != nil {
				logger.Warn("failed to save result", "error", err)
			} else {
				logger.Info("result saved", "path", path)
			}
		}
	}
	if flags.xlsx != "" && a.processor.Store() != nil {
		if err := a.writeFormsXLSX(ctx, flags.xlsx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
	}
	if procErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", procErr)
		return exitFailed
	}
	return exitOK
}

func (a *app) runBatch(ctx context.Context, dir string, hint forms.FormType, xlsxPath string, options formatters.FormatterOptions, stdout, stderr io.Writer) int {
	interactive := isTerminal(stderr)
	progress := func(completed, total int, current string) {
		if interactive {
			fmt.Fprintf(stderr, "\rProcessed %d/%d", completed, total)
			if completed == total {
				fmt.Fprintln(stderr)
			}
		}
	}

	report, err := a.processor.ProcessBatch(ctx, dir, core.BatchOptions{
		Patterns: core.DefaultPatterns,
		Hint:     hint,
		Workers:  a.cfg.Defaults.Workers,
		Progress: progress,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	if err := a.emit(formatters.BatchReport(report), options, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	if a.cfg.Defaults.OutputDir != "" {
		if path, err := core.SaveBatch(a.cfg.Defaults.OutputDir, report); err != nil {
			a.logger.Warn("failed to save batch report", "error", err)
		} else {
			a.logger.Info("batch report saved", "path", path)
		}
	}

	if xlsxPath != "" {
		data, err := export.BatchXLSX(report)
		if err == nil {
			err = os.WriteFile(xlsxPath, data, 0o644)
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error writing XLSX: %v\n", err)
			return exitFailed
		}
	}

	if report.ErrorCount > 0 {
		return exitFailed
	}
	return exitOK
}

func (a *app) emit(report formatters.Report, options formatters.FormatterOptions, stdout io.Writer) error {
	out, err := formatters.Export(a.cfg.Defaults.Format, report, options)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}

func (a *app) writeFormsXLSX(ctx context.Context, path string) error {
	records, err := a.processor.Store().ListForms(ctx, 10000)
	if err != nil {
		return err
	}
	data, err := export.FormsXLSX(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (a *app) printStatistics(ctx context.Context, stdout, stderr io.Writer) int {
	st, err := a.processor.Statistics(ctx, a.cfg.Database.Type)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return writeJSON(st, stdout, stderr)
}

func (a *app) printEfileStatus(ctx context.Context, id string, stdout, stderr io.Writer) int {
	st, err := a.filer.Status(ctx, id)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return writeJSON(st, stdout, stderr)
}

func (a *app) serveWeb(ctx context.Context, stderr io.Writer) int {
	ws := web.NewWebServer(strconv.Itoa(a.cfg.Web.Port), a.processor, a.cfg.Database.Type, a.logger)
	if err := ws.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Error starting web server: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func (a *app) serveMCP(ctx context.Context, stderr io.Writer) int {
	s, err := mcpserver.NewServer(a.processor)
	if err == nil {
		err = s.Run(ctx)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func writeJSON(v any, stdout, stderr io.Writer) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func parseHint(catalog *forms.Catalog, s string) (forms.FormType, error) {
	if s == "" {
		return "", nil
	}
	ft, ok := catalog.Resolve(s)
	if !ok {
		return "", fmt.Errorf("unknown form type %q", s)
	}
	return ft, nil
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "-help", "--help", "help":
		return true
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
