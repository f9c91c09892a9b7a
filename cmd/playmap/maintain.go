package main

import (
	"context"
	"fmt"

	"playmap/internal/app"
	"playmap/internal/playmap"

	"github.com/spf13/cobra"
)

// maintain command
var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Sweep orphaned photos and report storage usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			if !watch {
				printReport(a.RunMaintenance(ctx))
				return nil
			}

			s, err := a.NewScheduler()
			if err != nil {
				return err
			}
			s.Start()
			fmt.Printf("Running maintenance on schedule %q; next run %s. Press Ctrl-C to stop.\n",
				a.Config().Maintenance.Schedule, s.Next().Local().Format("2006-01-02 15:04:05"))

			<-ctx.Done()
			s.Stop()

			if report, ok := s.LastReport(); ok {
				fmt.Printf("Completed %d run(s). Last:\n", s.Runs())
				printReport(report)
			}
			return nil
		})
	},
}

func printReport(r playmap.MaintenanceReport) {
	fmt.Printf("Orphans removed: %d\n", r.OrphansRemoved)
	fmt.Printf("Photos:          %d (%d bytes)\n", r.Usage.PhotoCount, r.Usage.PhotoBytes)
	fmt.Printf("Catalog:         %d bytes\n", r.Usage.DataBytes)
	fmt.Printf("Total:           %d bytes\n", r.Usage.TotalBytes)
	if r.Saved {
		fmt.Println("Catalog saved.")
	}
}

func init() {
	maintainCmd.Flags().BoolP("watch", "w", false, "Keep running maintenance on the configured schedule")
}
