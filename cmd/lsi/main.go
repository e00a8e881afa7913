package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lsi/internal/cfg"
	"github.com/standardbeagle/lsi/internal/config"
	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/index"
	"github.com/standardbeagle/lsi/internal/indexing"
	"github.com/standardbeagle/lsi/internal/parser"
	"github.com/standardbeagle/lsi/internal/search"
	"github.com/standardbeagle/lsi/internal/types"
	"github.com/standardbeagle/lsi/internal/version"
)

const summaryRounding = time.Millisecond

// statKinds fixes the display order of the per-kind breakdown.
var statKinds = []types.SymbolKind{
	types.SymbolKindFunction,
	types.SymbolKindClass,
	types.SymbolKindImport,
	types.SymbolKindCallSite,
	types.SymbolKindIdentifier,
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	conf, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		conf.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		conf.Exclude = append(conf.Exclude, excludeFlags...)
	}
	if workers := c.Int("workers"); workers > 0 {
		conf.Index.Workers = workers
	}
	return conf, nil
}

func loadIndex(conf *config.Config) (*index.InvertedIndex, error) {
	idx, err := index.Load(conf.Index.IndexPath)
	if err != nil {
		if os.IsNotExist(errUnwrapAll(err)) {
			return nil, fmt.Errorf("no index at %s, run 'lsi index' first", conf.Index.IndexPath)
		}
		return nil, err
	}
	return idx, nil
}

func errUnwrapAll(err error) error {
	for {
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

func main() {
	app := &cli.App{
		Name:                   "lsi",
		Usage:                  "Lightning symbol index: code search and control flow analysis",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.py')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/tests/**')",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel parse workers (0 = all CPUs)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			indexCommand(),
			searchCommand(),
			analyzeCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Build the symbol index for the project",
		Action: func(c *cli.Context) error {
			conf, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			idx, summary, err := indexing.Build(ctx, conf)
			if err != nil {
				return err
			}
			if err := index.Save(idx, conf.Index.IndexPath); err != nil {
				return err
			}

			fmt.Printf("Indexed %s (%d files) in %s\n", conf.Project.Name, summary.Indexed, summary.Elapsed.Round(summaryRounding))
			fmt.Printf("  functions: %d  classes: %d  imports: %d  call sites: %d  tokens: %d\n",
				summary.Functions, summary.Classes, summary.Imports, summary.CallSites, summary.Tokens)
			for _, skip := range summary.Skipped {
				fmt.Printf("  skipped %s: %s\n", skip.Path, skip.Reason)
			}
			if len(summary.Warnings) > 0 {
				fmt.Printf("  %d warnings (first: %s:%d %s)\n",
					len(summary.Warnings), summary.Warnings[0].Path, summary.Warnings[0].Line, summary.Warnings[0].Message)
			}
			fmt.Printf("Index written to %s\n", conf.Index.IndexPath)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the symbol index",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum results",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Interactive query loop",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			conf, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			idx, err := loadIndex(conf)
			if err != nil {
				return err
			}

			engine := search.NewEngine(idx)
			opts := search.Options{
				Limit:          conf.Search.MaxResults,
				EnableFuzzy:    conf.Search.EnableFuzzy,
				EnableStemming: conf.Search.EnableStemming,
			}
			if n := c.Int("limit"); n > 0 {
				opts.Limit = n
			}

			query := strings.Join(c.Args().Slice(), " ")
			if c.Bool("interactive") || strings.TrimSpace(query) == "" {
				return interactiveSearch(engine, opts)
			}
			return printResults(engine.Search(query, opts), c.Bool("json"))
		},
	}
}

// interactiveSearch reads queries from stdin until EOF or quit.
func interactiveSearch(engine *search.Engine, opts search.Options) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Interactive search, type a query ('quit' to exit)")
	for {
		fmt.Print("lsi> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}
		if err := printResults(engine.Search(line, opts), false); err != nil {
			return err
		}
	}
}

func printResults(resp *search.Response, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		for _, s := range resp.Suggestions {
			fmt.Printf("Did you mean %q?\n", s)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tKIND\tNAME\tLOCATION")
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s:%d\n", r.Score, r.Kind, r.Name, r.FilePath, r.Line)
	}
	return w.Flush()
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Control flow and complexity analysis for a file or function",
		ArgsUsage: "FILE [FUNCTION]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "paths",
				Usage: "Print sample execution paths",
			},
			&cli.BoolFlag{
				Name:  "dataflow",
				Usage: "Report assignments whose value is never read",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("usage: lsi analyze FILE [FUNCTION]")
			}
			conf, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}

			path := c.Args().Get(0)
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			p, err := parser.New(parser.PythonGrammar{})
			if err != nil {
				return err
			}
			defer p.Close()

			tree, err := p.Parse(path, content)
			if err != nil {
				return err
			}
			defer tree.Close()

			builder := cfg.NewBuilder(path, content)
			analyzer := cfg.NewAnalyzer(conf.Analysis.PathCap, conf.Analysis.SamplePaths)

			var graphs []*cfg.FunctionCFG
			if c.NArg() >= 2 {
				g, err := builder.BuildByName(tree.RootNode(), c.Args().Get(1))
				if err != nil {
					return err
				}
				graphs = append(graphs, g)
			} else {
				graphs = builder.BuildAll(tree.RootNode())
			}
			if len(graphs) == 0 {
				return fmt.Errorf("no functions found in %s", path)
			}

			reports := make([]*cfg.ComplexityReport, 0, len(graphs))
			for _, g := range graphs {
				reports = append(reports, analyzer.Analyze(g))
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FUNCTION\tLINE\tBLOCKS\tEDGES\tCOMPLEXITY\tPATHS")
			for _, r := range reports {
				paths := fmt.Sprintf("%d", r.PathCount)
				if r.PathCountIsLowerBound {
					paths = ">=" + paths
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
					r.FunctionName, r.StartLine, r.Blocks, r.Edges, r.CyclomaticComplexity, paths)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, r := range reports {
				for _, warn := range r.Warnings {
					fmt.Printf("warning: %s:%d %s\n", warn.Path, warn.Line, warn.Message)
				}
				if len(r.UnreachableBlocks) > 0 {
					fmt.Printf("%s: %d unreachable block(s)\n", r.FunctionName, len(r.UnreachableBlocks))
				}
				if c.Bool("paths") {
					for i, path := range r.SamplePaths {
						fmt.Printf("%s path %d: %v\n", r.FunctionName, i+1, path)
					}
				}
			}

			if c.Bool("dataflow") {
				for _, fn := range builder.Functions(tree.RootNode()) {
					report := builder.AnalyzeDataflow(fn)
					for _, d := range report.Unused {
						fmt.Printf("%s: %s assigned at line %d but never read\n", fn.Name, d.Name, d.Line)
					}
				}
			}
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show statistics for the persisted index",
		Action: func(c *cli.Context) error {
			conf, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			idx, err := loadIndex(conf)
			if err != nil {
				return err
			}

			counts := idx.CountByKind()
			fmt.Printf("Project:    %s\n", conf.Project.Name)
			fmt.Printf("Built at:   %s\n", idx.Meta.BuiltAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Files:      %d\n", len(idx.Files))
			fmt.Printf("Symbols:    %d\n", idx.SymbolCount())
			fmt.Printf("Tokens:     %d\n", len(idx.Postings))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, kind := range statKinds {
				fmt.Fprintf(w, "  %s\t%d\n", kind, counts[kind])
			}
			return w.Flush()
		},
	}
}
