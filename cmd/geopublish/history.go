package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/geopublish/internal/runlog"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent publish runs from the run history database",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().String("run-log", "", "run history database (default from config)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("run-log")
	if path == "" {
		path = viper.GetString("run_log.path")
	}
	if path == "" {
		return fmt.Errorf("no run history database configured (set run_log.path or --run-log)")
	}

	store, err := runlog.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "FAILED: " + run.Error
		}
		published := ""
		if run.Published {
			published = ", published"
		}
		fmt.Printf("%s  %s (%s, %s%s)  %s\n",
			run.Started.Local().Format("2006-01-02 15:04:05"),
			run.Dataset, run.Mode, run.Environment, published, status)
		for _, a := range run.Artifacts {
			if a.Error != "" {
				fmt.Printf("    %-8s FAILED: %s\n", a.Format, a.Error)
				continue
			}
			size := "?"
			if a.Size != nil {
				size = fmt.Sprintf("%d bytes", *a.Size)
			}
			fmt.Printf("    %-8s %s (%s)\n", a.Format, a.Path, size)
		}
	}
	return nil
}
