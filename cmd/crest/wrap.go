package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"crest/internal/driver"
	"crest/internal/ir"
	"crest/internal/project"
	"crest/internal/snapshot"
	"crest/internal/testkit"
	"crest/internal/ui"
)

var (
	wrapUI              bool
	wrapReportPromotion bool
	wrapShowBodies      bool
)

var wrapCmd = &cobra.Command{
	Use:   "wrap [snapshot.mp]",
	Short: "Run wrapper synthesis over a module snapshot",
	Long: `wrap loads an IR module snapshot, rewrites every resolved call site
and prints the synthesized wrappers. Without a snapshot it runs over a small
built-in demo module.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWrap,
}

func init() {
	wrapCmd.Flags().BoolVar(&wrapUI, "ui", false, "render live progress")
	wrapCmd.Flags().BoolVar(&wrapReportPromotion, "report-promotion", false, "note every promoted call site")
	wrapCmd.Flags().BoolVar(&wrapShowBodies, "bodies", false, "print wrapper bodies, not just signatures")
}

func runWrap(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := project.Load(configPath)
	if err != nil {
		return err
	}

	var mod *ir.Module
	if len(args) == 1 {
		mod, err = snapshot.ReadFile(args[0])
		if err != nil {
			return err
		}
	} else {
		fixture, _ := testkit.BuildDemoModule()
		mod = fixture.Mod
	}

	opts := driver.Options{
		Jobs:           cfg.Driver.Jobs,
		MaxDiagnostics: cfg.Driver.MaxDiagnostics,
	}
	opts.Resolve.FastFollowerChecks = cfg.Resolve.FastFollowerChecks
	opts.Resolve.ReportPromotion = cfg.Resolve.ReportPromotion || wrapReportPromotion
	opts.Resolve.CoercionLimit = cfg.Resolve.CoercionLimit

	funcsBefore := mod.NumFuncs()

	var result *driver.Result
	var runErr error

	if wrapUI && isTerminal(os.Stdout) {
		events := make(chan driver.Event, 16)
		names := make([]string, 0, len(mod.Defs))
		for _, id := range mod.Defs {
			names = append(names, mod.Func(id).Name)
		}
		model := ui.NewProgressModel("wrapper synthesis", names, events)
		prog := tea.NewProgram(model)
		go func() {
			result, runErr = driver.Run(cmd.Context(), mod, opts, events)
			close(events)
		}()
		if _, err := prog.Run(); err != nil {
			return err
		}
	} else {
		result, runErr = driver.Run(context.Background(), mod, opts, nil)
	}

	if result != nil {
		printDiagnostics(mod, result)
		if !quiet {
			fmt.Printf("functions: %d  sites: %d  rewritten: %d  wrappers: %d\n",
				result.Funcs, result.Sites, result.Rewritten, result.Wrappers)
		}
		printWrappers(mod, funcsBefore)
	}
	return runErr
}

func printDiagnostics(mod *ir.Module, result *driver.Result) {
	result.Bag.Sort()
	for _, d := range result.Bag.Items() {
		file := mod.Files.Name(d.Primary.File)
		if file == "" {
			file = "<synth>"
		}
		fmt.Fprintf(os.Stderr, "%s: %s[%s]: %s\n", file, d.Severity, d.Code, d.Message)
		for _, note := range d.Notes {
			fmt.Fprintf(os.Stderr, "  note: %s\n", note.Msg)
		}
	}
}

func printWrappers(mod *ir.Module, funcsBefore int) {
	printer := ir.NewPrinter(mod)
	for id := ir.FuncID(funcsBefore + 1); int(id) <= mod.NumFuncs(); id++ {
		fn := mod.Func(id)
		if wrapShowBodies {
			fmt.Println(printer.Func(id))
			continue
		}
		fmt.Printf("%s  (%s)  [%s]\n", fn.Name, fn.CName, fn.Flags)
	}
}
