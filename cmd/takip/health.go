package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burakseven/takip/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and cloud adapter readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Database: %s\n", ui.RenderPass(a.Store.Path()))

		dirty := 0
		for _, t := range a.Tables.Names() {
			r, err := a.Repos.Get(t)
			if err != nil {
				continue
			}
			rows, err := r.DirtyRows(cmd.Context())
			if err != nil {
				continue
			}
			dirty += len(rows)
		}
		if dirty > 0 {
			fmt.Printf("Pending:  %s\n", ui.RenderWarn(fmt.Sprintf("%d dirty row(s) awaiting push", dirty)))
		} else {
			fmt.Printf("Pending:  %s\n", ui.RenderMuted("no dirty rows"))
		}

		adapter, err := a.Adapter()
		if err != nil {
			return err
		}
		ok, detail := adapter.HealthCheck(cmd.Context())
		label := fmt.Sprintf("%s adapter", adapter.Mode())
		if ok {
			fmt.Printf("Cloud:    %s\n", ui.RenderPass(fmt.Sprintf("%s ready (%s)", label, detail)))
		} else {
			fmt.Printf("Cloud:    %s\n", ui.RenderWarn(fmt.Sprintf("%s unavailable: %s", label, detail)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
