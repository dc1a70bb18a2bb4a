package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/smart-summarizer/internal/reports"
)

var reportCmd = &cobra.Command{
	Use:       "report <summaries|users|activity>",
	Short:     "Print an admin report",
	Long:      `Prints a report as a table, or as CSV with --csv.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"summaries", "users", "activity"},
	RunE:      runReport,
}

func init() {
	reportCmd.Flags().String("period", reports.PeriodMonthly, "daily, weekly or monthly; other values cover the last 30 days")
	reportCmd.Flags().Bool("csv", false, "write CSV instead of a table")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	period, _ := cmd.Flags().GetString("period")
	asCSV, _ := cmd.Flags().GetBool("csv")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openServerDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	report, err := reports.NewGenerator(database).Generate(ctx, reports.Type(args[0]), period, time.Now())
	if err != nil {
		types := make([]string, len(reports.Types))
		for i, t := range reports.Types {
			types[i] = string(t)
		}
		return fmt.Errorf("%w (available: %s)", err, strings.Join(types, ", "))
	}

	if asCSV {
		return report.WriteCSV(cmd.OutOrStdout())
	}
	report.Table(cmd.OutOrStdout())
	return nil
}
