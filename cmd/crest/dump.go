package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crest/internal/ir"
	"crest/internal/snapshot"
	"crest/internal/testkit"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [snapshot.mp]",
	Short: "Print the functions of a module snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var mod *ir.Module
		if len(args) == 1 {
			loaded, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			mod = loaded
		} else {
			fixture, _ := testkit.BuildDemoModule()
			mod = fixture.Mod
		}

		printer := ir.NewPrinter(mod)
		for _, id := range mod.Defs {
			fmt.Println(printer.Func(id))
		}
		return nil
	},
}
