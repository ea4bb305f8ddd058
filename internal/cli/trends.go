package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/data/history"
)

var trendsSince time.Duration

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show health-score history for this project",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		var since time.Time
		if trendsSince > 0 {
			since = time.Now().Add(-trendsSince)
		}
		runs, err := store.LoadRuns(cfg.Project.Key, since)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tFILES\tFUNCS\tISSUES\tCRIT\tHIGH\tHEALTH\tTREND")
		prev := -1
		for _, run := range runs {
			trend := "-"
			if prev >= 0 {
				switch {
				case run.HealthScore > prev:
					trend = "up"
				case run.HealthScore < prev:
					trend = "down"
				default:
					trend = "flat"
				}
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
				run.Timestamp.Local().Format("2006-01-02 15:04:05"),
				run.FileCount,
				run.FunctionCount,
				run.IssueCount,
				run.CriticalCount,
				run.HighCount,
				run.HealthScore,
				trend)
			prev = run.HealthScore
		}
		return w.Flush()
	},
}

func init() {
	trendsCmd.Flags().DurationVar(&trendsSince, "since", 0, "only show runs newer than this age (e.g. 72h)")
	rootCmd.AddCommand(trendsCmd)
}
