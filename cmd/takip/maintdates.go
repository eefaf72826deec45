package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burakseven/takip/internal/maint"
	"github.com/burakseven/takip/internal/ui"
)

var (
	flagMaintDryRun   bool
	flagMaintNoBackup bool
	flagMaintTables   []string
)

var maintDatesCmd = &cobra.Command{
	Use:   "maintain-dates",
	Short: "Rewrite stored dates into the canonical YYYY-MM-DD form",
	Long: `Scan date-bearing columns across every configured table and rewrite
any recognized variant (DD/MM/YYYY, DD.MM.YYYY, timestamps and friends) into
the canonical YYYY-MM-DD form.

A real run takes a backup copy of the database file first. Unparseable
values are counted and logged but never modified. Corrections are applied
in a single transaction: either every table's fixes land or none do.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pass := maint.New(a.Store, a.Tables, a.Logger)
		report, err := pass.Run(cmd.Context(), maint.Options{
			DryRun:     flagMaintDryRun,
			SkipBackup: flagMaintNoBackup,
			Tables:     flagMaintTables,
		})
		if err != nil {
			// Surface through logging; the database was left untouched.
			a.Logger.Printf("date maintenance failed: %v", err)
			fmt.Println(ui.RenderErr(fmt.Sprintf("Date maintenance failed: %v", err)))
			return nil
		}

		printMaintReport(report)
		return nil
	},
}

func printMaintReport(r *maint.Report) {
	header := "Date maintenance"
	if r.DryRun {
		header += " (dry run)"
	}
	fmt.Println(ui.RenderAccent(header))
	fmt.Println(ui.RenderMuted(fmt.Sprintf("run %s", r.RunID)))
	if r.BackupPath != "" {
		fmt.Printf("Backup: %s\n", r.BackupPath)
	}
	for _, t := range r.Tables {
		line := fmt.Sprintf("  %-16s scanned %4d  changed %4d", t.Name, t.Scanned, t.Changed)
		if t.Unparseable > 0 {
			line += ui.RenderWarn(fmt.Sprintf("  unparseable %d", t.Unparseable))
		}
		fmt.Println(line)
	}
	verb := "corrected"
	if r.DryRun {
		verb = "would correct"
	}
	summary := fmt.Sprintf("%s %d value(s) across %d table(s)", verb, r.TotalChanged(), len(r.Tables))
	if r.TotalUnparseable() > 0 {
		fmt.Println(ui.RenderWarn(summary + fmt.Sprintf(", %d left unparseable", r.TotalUnparseable())))
		return
	}
	fmt.Println(ui.RenderPass(summary))
}

func init() {
	maintDatesCmd.Flags().BoolVar(&flagMaintDryRun, "dry-run", false, "report candidate changes without writing")
	maintDatesCmd.Flags().BoolVar(&flagMaintNoBackup, "no-backup", false, "skip the pre-run database backup")
	maintDatesCmd.Flags().StringSliceVar(&flagMaintTables, "table", nil, "restrict the pass to the named table(s)")
	rootCmd.AddCommand(maintDatesCmd)
}
