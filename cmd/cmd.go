package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
	"github.com/weldlang/weld/inline"
	"github.com/weldlang/weld/parser"
	"github.com/weldlang/weld/printer"
	"github.com/xyproto/env/v2"
	"golang.org/x/term"
)

// Execute runs the weld CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "weld",
		Usage:                  "Inline expansion for .wd sources",
		Version:                version,
		UseShortOptionHandling: true,
		// Allow `weld file.wd` as shorthand for `weld expand file.wd`
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 && strings.HasSuffix(cmd.Args().First(), ".wd") {
				return expandFiles(cmd.Args().Slice(), nil, "")
			}
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "expand",
				Usage:     "Expand template calls and print the result",
				ArgsUsage: "<file.wd> [file.wd ...]",
				Flags: []cli.Flag{
					templatesFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write output to a file instead of stdout",
					},
				},
				Action: expandAction,
			},
			{
				Name:      "check",
				Usage:     "Expand and report diagnostics only",
				ArgsUsage: "<file.wd> [file.wd ...]",
				Flags:     []cli.Flag{templatesFlag()},
				Action:    checkAction,
			},
			{
				Name:      "templates",
				Usage:     "List registered templates",
				ArgsUsage: "[file.wd ...]",
				Flags:     []cli.Flag{templatesFlag()},
				Action:    templatesAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func templatesFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "templates",
		Aliases: []string{"t"},
		Usage:   "Template library file (repeatable)",
	}
}

func expandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: weld expand [-t lib.wd] [-o out.wd] <file.wd> [file.wd ...]")
	}
	return expandFiles(cmd.Args().Slice(), cmd.StringSlice("templates"), cmd.String("output"))
}

func expandFiles(files, libs []string, output string) error {
	if output != "" && len(files) > 1 {
		return fmt.Errorf("-o expects a single input file, got %d", len(files))
	}
	units, diags, err := expandAll(files, libs)
	if err != nil {
		return err
	}
	printDiags(os.Stderr, diags)
	src := strings.Join(units, "\n")
	if output != "" {
		return os.WriteFile(output, []byte(src), 0o644)
	}
	fmt.Print(src)
	return nil
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: weld check [-t lib.wd] <file.wd> [file.wd ...]")
	}
	_, diags, err := expandAll(cmd.Args().Slice(), cmd.StringSlice("templates"))
	if err != nil {
		return err
	}
	printDiags(os.Stderr, diags)
	for _, d := range diags {
		if d.Severity >= diag.Warning {
			return cli.Exit("", 1)
		}
	}
	return nil
}

func templatesAction(ctx context.Context, cmd *cli.Command) error {
	reg, diags, err := loadRegistry(cmd.StringSlice("templates"), cmd.Args().Slice())
	if err != nil {
		return err
	}
	printDiags(os.Stderr, diags)
	for _, t := range reg.Templates() {
		fmt.Printf("%-24s %s:%d\n", signature(t), t.File, t.Line)
	}
	return nil
}

func signature(t *inline.Template) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(%s) %s(", param(t.Receiver), t.Name)
	for i, p := range t.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param(p))
	}
	sb.WriteString(")")
	if t.Result != nil {
		sb.WriteString(": " + t.Result.String())
	}
	return sb.String()
}

func param(p ast.Param) string {
	if p.Type != nil {
		return p.Name + ": " + p.Type.String()
	}
	return p.Name
}

// expandAll parses and registers sequentially, then expands every unit
// concurrently with an independent engine per file. Outputs and diagnostics
// are aggregated only after each unit finishes.
func expandAll(files, libs []string) ([]string, []diag.Diagnostic, error) {
	reg, diags, err := loadRegistry(libs, files)
	if err != nil {
		return nil, nil, err
	}
	progs := make([]*ast.Program, len(files))
	for i, f := range files {
		p, err := parser.ParseFile(f)
		if err != nil {
			return nil, nil, err
		}
		progs[i] = p
	}

	units := make([]string, len(files))
	unitDiags := make([][]diag.Diagnostic, len(files))
	var wg sync.WaitGroup
	for i, prog := range progs {
		wg.Add(1)
		go func(i int, prog *ast.Program) {
			defer wg.Done()
			eng := inline.New(reg)
			units[i] = printer.Print(eng.Expand(prog))
			unitDiags[i] = eng.Diagnostics()
		}(i, prog)
	}
	wg.Wait()
	for _, d := range unitDiags {
		diags = append(diags, d...)
	}
	return units, diags, nil
}

// loadRegistry builds the template registry from WELD_TEMPLATES, the -t
// libraries and the input files themselves, in that order.
func loadRegistry(libs, files []string) (*inline.Registry, []diag.Diagnostic, error) {
	reg := inline.NewRegistry()
	var diags []diag.Diagnostic
	var paths []string
	if def := env.Str("WELD_TEMPLATES"); def != "" {
		paths = append(paths, def)
	}
	paths = append(paths, libs...)
	paths = append(paths, files...)
	for _, p := range paths {
		prog, err := parser.ParseFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("loading templates: %w", err)
		}
		diags = append(diags, reg.RegisterProgram(prog)...)
	}
	return reg, diags, nil
}

func printDiags(w *os.File, diags []diag.Diagnostic) {
	color := term.IsTerminal(int(w.Fd())) && !env.Bool("NO_COLOR")
	for _, d := range diags {
		if !color {
			fmt.Fprintln(w, d)
			continue
		}
		c := "36" // info: cyan
		switch d.Severity {
		case diag.Warning:
			c = "33"
		case diag.Error:
			c = "31"
		}
		fmt.Fprintf(w, "%s: \x1b[%sm%s\x1b[0m: %s [%s]\n", d.Pos, c, d.Severity, d.Message, d.Code)
	}
}
