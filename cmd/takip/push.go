package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/burakseven/takip/internal/push"
	"github.com/burakseven/takip/internal/ui"
)

var flagPushDaemon bool

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push dirty rows to their mapped Google Sheets worksheets",
	Long: `Push every dirty row in the syncable tables to its worksheet.

Rows are matched by primary key: an existing remote row is overwritten in
place, a new one is appended. A row is marked clean only after its remote
write succeeds, so a failed push retries on the next run.

With --daemon the push repeats on the configured interval until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		adapter, err := a.Adapter()
		if err != nil {
			return err
		}
		driver := push.New(a.Repos, adapter, a.Logger)

		if flagPushDaemon {
			daemon := push.NewDaemon(driver, &push.DaemonConfig{
				Interval: a.Config.PushInterval,
				Logger:   a.Logger,
			})

			// Pick up sheet-map edits for the daemon's lifetime so a fixed
			// mapping takes effect without a restart.
			watchCtx, stopWatch := context.WithCancel(context.Background())
			defer stopWatch()
			if a.Config.SheetMapPath != "" {
				go func() {
					if err := a.Names.Watch(watchCtx); err != nil {
						a.Logger.Printf("WARNING: sheet map watcher stopped: %v", err)
					}
				}()
			}

			daemon.Start()
			fmt.Println(ui.RenderAccent(fmt.Sprintf("Push daemon running every %s. Ctrl-C to stop.", a.Config.PushInterval)))

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			stopWatch()
			daemon.Stop()
			fmt.Println(ui.RenderMuted("Push daemon stopped."))
			return nil
		}

		result, err := driver.PushAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
		printPushResult(result)
		return nil
	},
}

func printPushResult(r *push.Result) {
	summary := fmt.Sprintf("pushed %d row(s) across %d table(s)", r.Pushed, r.Tables)
	switch {
	case r.Failed > 0:
		fmt.Println(ui.RenderWarn(summary + fmt.Sprintf(", %d failed (still dirty)", r.Failed)))
	case r.Skipped > 0:
		fmt.Println(ui.RenderMuted(summary + fmt.Sprintf(", %d table(s) skipped", r.Skipped)))
	default:
		fmt.Println(ui.RenderPass(summary))
	}
}

func init() {
	pushCmd.Flags().BoolVar(&flagPushDaemon, "daemon", false, "keep pushing on the configured interval")
	rootCmd.AddCommand(pushCmd)
}
