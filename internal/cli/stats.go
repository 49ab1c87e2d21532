package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futureCreator/docgen/internal/config"
	"github.com/futureCreator/docgen/internal/run"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cost and run statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := run.List(filepath.Join(config.Dir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No runs found.")
			return nil
		}
		return fmt.Errorf("reading runs dir: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	var totalCost float64
	var completed, failed, docs, degraded int
	for _, s := range stats {
		totalCost += s.Meta.TotalCost
		degraded += s.Meta.Degraded
		for _, it := range s.Meta.Items {
			if it.Status != run.ItemFailed {
				docs++
			}
		}
		switch s.Meta.Status {
		case run.StatusCompleted:
			completed++
		case run.StatusFailed:
			failed++
		}
	}

	fmt.Printf("Runs: %d total, %d completed, %d failed\n", len(stats), completed, failed)
	fmt.Printf("Documents: %d generated, %d degraded\n", docs, degraded)
	fmt.Printf("Total cost: $%.4f\n", totalCost)
	fmt.Printf("Average cost: $%.4f\n", totalCost/float64(len(stats)))
	fmt.Println()
	fmt.Printf("%-40s %-10s %-8s %-12s %s\n", "Run ID", "Status", "Docs", "Cost", "Model")
	fmt.Println(strings.Repeat("─", 84))
	for _, s := range stats {
		fmt.Printf("%-40s %-10s %-8s $%-11.4f %s\n",
			s.ID, s.Meta.Status, fmt.Sprintf("%d/%d", len(s.Meta.Items), s.Meta.Limit), s.Meta.TotalCost, s.Meta.Model)
	}
	return nil
}
