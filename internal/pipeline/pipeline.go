// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one dataset job end to end: stage the source into
// a temp geodatabase, run the requested format exports, then reconcile and
// commit the catalog record. The batch runner executes a job list with
// per-job fault isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/internal/catalog"
	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/internal/export"
	"github.com/meshintel/geopublish/internal/metadata"
	"github.com/meshintel/geopublish/internal/store"
	"github.com/meshintel/geopublish/pkg/types"
)

// Catalog is the remote catalog capability the pipeline needs.
type Catalog interface {
	Get(ctx context.Context, id string) (*types.Record, error)
	Create(ctx context.Context, rec *types.Record) error
	Update(ctx context.Context, rec *types.Record) error
	GetGroup(ctx context.Context, name string) (*types.Group, error)
}

// Outcome is the result of one job run.
type Outcome struct {
	// Dataset is the job's display name.
	Dataset string

	Mode        types.RunMode
	Environment string

	// Results holds one entry per requested format, in run order. Empty
	// when the job skipped the export half.
	Results []types.Result

	// Published is set when the catalog record was committed.
	Published bool

	Started  time.Time
	Finished time.Time

	// Err is the job-level failure, nil when the job ran to completion.
	// Individual format failures live in Results, not here.
	Err error
}

// Failed reports whether the job failed outright. Per-format failures are
// logged and surfaced through Results but do not fail an otherwise
// committed job.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Pipeline runs dataset jobs against a spatial engine and a catalog.
type Pipeline struct {
	Engine  engine.Engine
	Catalog Catalog
	Cfg     types.PipelineConfig
	Log     zerolog.Logger

	// Now stamps record versions. Defaults to time.Now.
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes one job. Format failures are collected in the outcome; a
// job-level failure (staging, catalog commit) sets Outcome.Err. Run itself
// never panics across jobs; the batch runner relies on that.
func (p *Pipeline) Run(ctx context.Context, job types.Job) Outcome {
	log := p.jobLogger(job)
	out := Outcome{Dataset: job.DisplayName, Mode: job.Mode, Environment: job.Environment, Started: p.now()}
	defer func() { out.Finished = p.now() }()

	log.Info().Str("mode", string(job.Mode)).Msg("starting job")

	if len(job.Formats) == 0 {
		log.Warn().Msg("job requests no formats, nothing to do")
		return out
	}

	st := store.New(p.Cfg.Export, job.FileName(), p.Engine, log)
	if err := st.Cleanup(); err != nil {
		out.Err = fmt.Errorf("cleaning workspace: %w", err)
		return out
	}
	if err := st.Init(); err != nil {
		out.Err = fmt.Errorf("initializing workspace: %w", err)
		return out
	}

	dt, err := p.Engine.Describe(job.SourcePath())
	if err != nil {
		out.Err = fmt.Errorf("describing source %s: %w", job.SourcePath(), err)
		return out
	}
	log.Debug().Str("type", string(dt)).Msg("described source dataset")

	rc := export.NewRunContext(job, dt, p.Engine, st, p.Cfg.Export, log)

	if job.Mode != types.ModePublish {
		if err := export.Stage(rc); err != nil {
			out.Err = fmt.Errorf("staging dataset: %w", err)
			return out
		}
		out.Results = export.Run(rc)
	}

	if job.Mode != types.ModeExport {
		published, err := p.publish(ctx, rc, log)
		out.Published = published
		if err != nil {
			out.Err = err
			return out
		}
	}

	log.Info().Int("failed_formats", types.CountFailed(out.Results)).Msg("job finished")
	return out
}

// publish reconciles and commits the catalog record for the job's dataset.
func (p *Pipeline) publish(ctx context.Context, rc *export.RunContext, log zerolog.Logger) (bool, error) {
	job := rc.Job
	cfg := p.Cfg.Catalog
	id := cfg.DatasetID(job.DisplayName)
	title := cfg.DatasetTitle(job.DisplayName)

	rec, err := p.Catalog.Get(ctx, id)
	creating := false
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		log.Info().Str("dataset", id).Msg("dataset not found on catalog, creating")
		creating = true
		rec = catalog.NewRecord(id, title, cfg, p.now())
		if err := catalog.AttachGroup(ctx, p.Catalog, rec, cfg.GroupName, log); err != nil {
			return false, err
		}
	case err != nil:
		return false, fmt.Errorf("fetching catalog record %s: %w", id, err)
	default:
		log.Info().Str("dataset", id).Msg("updating existing catalog record")
		rec.Version = catalog.VersionStamp(p.now())
	}

	catalog.ReconcileResources(rec, job, title, cfg, rc.Store, log)

	if job.HasFormat(types.FormatMetadata) && export.Applicable(types.FormatMetadata, rc.DatasetType) {
		doc := rc.Store.OutputPath(types.FormatMetadata, rc.Name+".xml")
		sum, err := metadata.ParseFile(doc)
		if err != nil {
			return false, fmt.Errorf("reading published metadata: %w", err)
		}
		metadata.Apply(rec, sum, job.DisplayName, log)
	}

	if creating {
		if err := p.Catalog.Create(ctx, rec); err != nil {
			return false, fmt.Errorf("creating catalog record %s: %w", id, err)
		}
	} else {
		if err := p.Catalog.Update(ctx, rec); err != nil {
			return false, fmt.Errorf("updating catalog record %s: %w", id, err)
		}
	}
	log.Info().Str("dataset", id).Str("version", rec.Version).Msg("catalog record committed")
	return true, nil
}

// jobLogger derives the per-job logger: dataset and environment fields on
// every line, verbosity from the job's own log level.
func (p *Pipeline) jobLogger(job types.Job) zerolog.Logger {
	log := p.Log.With().
		Str("dataset", job.DisplayName).
		Str("environment", job.Environment).
		Logger()
	if level, err := zerolog.ParseLevel(job.LogLevel); err == nil && level != zerolog.NoLevel {
		log = log.Level(level)
	}
	return log
}
