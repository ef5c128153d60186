package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/geopublish/internal/catalog"
	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/internal/pipeline"
	"github.com/meshintel/geopublish/internal/runlog"
	"github.com/meshintel/geopublish/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Export datasets and publish them to the catalog",
	Long: `Run processes every job in the jobs file in order. Each job stages its
source into a temp file geodatabase, exports the requested formats into the
output tree, then reconciles and commits the dataset's catalog record.

A failed job never stops the batch; run exits non-zero when any job failed.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("jobs", "", "jobs file (default from config, jobs.yaml)")
	runCmd.Flags().String("output-dir", "", "root of the published output tree")
	runCmd.Flags().String("temp-dir", "", "root of the temp workspaces")
	runCmd.Flags().String("mode", "", "override every job's mode (EXPORT, PUBLISH or ALL)")
	runCmd.Flags().String("dataset", "", "run only the job with this display name")
	runCmd.Flags().Bool("dry-run", false, "run against an in-memory engine, skipping the catalog")
	runCmd.Flags().String("log-level", "info", "pipeline log level")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig(cmd)

	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", levelName, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	jobs, err := types.LoadJobs(cfg.JobsFile)
	if err != nil {
		return err
	}

	if dataset, _ := cmd.Flags().GetString("dataset"); dataset != "" {
		jobs = filterJobs(jobs, dataset)
		if len(jobs) == 0 {
			return fmt.Errorf("no job with display name %q in %s", dataset, cfg.JobsFile)
		}
	}

	if modeName, _ := cmd.Flags().GetString("mode"); modeName != "" {
		mode, err := types.ParseRunMode(modeName)
		if err != nil {
			return err
		}
		for i := range jobs {
			jobs[i].Mode = mode
		}
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	var eng engine.Engine
	if dryRun {
		log.Info().Msg("dry run: in-memory engine, catalog publication disabled")
		eng = seededMemoryEngine(jobs)
		for i := range jobs {
			jobs[i].Mode = types.ModeExport
		}
	} else {
		eng = engine.NewOGR()
	}

	p := &pipeline.Pipeline{
		Engine:  eng,
		Catalog: catalog.NewClient(cfg.Catalog),
		Cfg:     cfg,
		Log:     log,
	}

	result := p.RunBatch(cmd.Context(), jobs, os.Stdout)

	if cfg.RunLog.Path != "" && !dryRun {
		if err := recordBatch(cmd.Context(), cfg.RunLog.Path, result); err != nil {
			log.Warn().Err(err).Msg("recording run history failed")
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d job(s) failed", result.Failed)
	}
	return nil
}

// loadPipelineConfig assembles the pipeline configuration from the config
// file, environment and flags. Flags win over the config file.
func loadPipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Catalog: types.CatalogConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("catalog.timeout"),
				UserAgent: viper.GetString("catalog.user_agent"),
			},
			APIURL:          viper.GetString("catalog.api_url"),
			APIKey:          secretDefault("catalog-api-key", viper.GetString("catalog.api_key")),
			DatasetPrefix:   viper.GetString("catalog.dataset_prefix"),
			GroupName:       viper.GetString("catalog.group_name"),
			LicenseID:       viper.GetString("catalog.license_id"),
			DownloadURL:     viper.GetString("catalog.download_url"),
			Maintainer:      viper.GetString("catalog.maintainer"),
			MaintainerEmail: viper.GetString("catalog.maintainer_email"),
			Author:          viper.GetString("catalog.author"),
		},
		Export: types.ExportConfig{
			OutputRoot:          viper.GetString("export.output_root"),
			TempRoot:            viper.GetString("export.temp_root"),
			MetadataStylesheet:  viper.GetString("export.metadata_stylesheet"),
			NullSentinel:        viper.GetString("export.null_sentinel"),
			OutputSRID:          viper.GetInt("export.output_srid"),
			WGS84Transformation: viper.GetString("export.wgs84_transformation"),
		},
		RunLog: types.RunLogConfig{
			Path: viper.GetString("run_log.path"),
		},
		JobsFile: viper.GetString("jobs_file"),
	}

	if v, _ := cmd.Flags().GetString("jobs"); v != "" {
		cfg.JobsFile = v
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.Export.OutputRoot = v
	}
	if v, _ := cmd.Flags().GetString("temp-dir"); v != "" {
		cfg.Export.TempRoot = v
	}

	if cfg.JobsFile == "" {
		cfg.JobsFile = "jobs.yaml"
	}
	if cfg.Export.OutputRoot == "" {
		cfg.Export.OutputRoot = "output"
	}
	if cfg.Export.TempRoot == "" {
		cfg.Export.TempRoot = "temp"
	}
	return cfg
}

func filterJobs(jobs []types.Job, dataset string) []types.Job {
	var kept []types.Job
	for _, job := range jobs {
		if job.DisplayName == dataset {
			kept = append(kept, job)
		}
	}
	return kept
}

// seededMemoryEngine registers a small sample dataset at every job's source
// path so a dry run can exercise the full export path without real sources.
func seededMemoryEngine(jobs []types.Job) *engine.MemoryEngine {
	eng := engine.NewMemory()
	for _, job := range jobs {
		eng.Seed(job.SourcePath(), &engine.MemoryDataset{
			Type: engine.TypeFeatureClass,
			Fields: []engine.Field{
				{Name: "OBJECTID", Type: engine.FieldInteger},
				{Name: "Name", Type: engine.FieldString},
				{Name: "Shape", Type: engine.FieldGeometry},
			},
			Rows: []map[string]any{
				{"OBJECTID": int64(1), "Name": "sample", "Shape": "POINT"},
			},
		})
	}
	return eng
}

func recordBatch(ctx context.Context, path string, result pipeline.BatchResult) error {
	store, err := runlog.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, out := range result.Outcomes {
		run := runlog.Run{
			Dataset:     out.Dataset,
			Mode:        string(out.Mode),
			Environment: out.Environment,
			Started:     out.Started,
			Finished:    out.Finished,
			Published:   out.Published,
		}
		if out.Err != nil {
			run.Error = out.Err.Error()
		}
		for _, r := range out.Results {
			row := runlog.ArtifactRow{Format: string(r.Format)}
			if r.Artifact != nil {
				row.Path = r.Artifact.Path
				row.Size = r.Artifact.Size
			}
			if r.Err != nil {
				row.Error = r.Err.Error()
			}
			run.Artifacts = append(run.Artifacts, row)
		}
		if _, err := store.Record(ctx, run); err != nil {
			return err
		}
	}
	return nil
}
