package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/geopublish/pkg/types"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the parsed jobs from the jobs file",
	Long: `Jobs parses the jobs file and prints each job as it would run: display
name, source, mode, environment and the resolved format list. Useful for
checking defaults and format parsing before a real run.`,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().String("jobs", "", "jobs file (default from config, jobs.yaml)")

	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("jobs")
	if path == "" {
		path = viper.GetString("jobs_file")
	}
	if path == "" {
		path = "jobs.yaml"
	}

	jobs, err := types.LoadJobs(path)
	if err != nil {
		return err
	}

	for i, job := range jobs {
		formats := make([]string, len(job.Formats))
		for j, f := range job.Formats {
			formats[j] = string(f)
		}
		fmt.Printf("%d. %s\n", i+1, job.DisplayName)
		fmt.Printf("   source:  %s\n", job.SourcePath())
		fmt.Printf("   mode:    %s (%s)\n", job.Mode, job.Environment)
		fmt.Printf("   formats: %s\n", strings.Join(formats, ", "))
		if len(job.ExcludeFields) > 0 {
			fmt.Printf("   exclude: %s\n", strings.Join(job.ExcludeFields, ", "))
		}
	}
	fmt.Printf("\n%d job(s)\n", len(jobs))
	return nil
}
