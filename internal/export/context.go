// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/internal/store"
	"github.com/meshintel/geopublish/pkg/types"
)

// defaultNullSentinel is the literal placeholder some upstream editors leave
// in text fields instead of a true null.
const defaultNullSentinel = "<Null>"

// RunContext carries everything one job's exporters need. It is constructed
// once per job and never mutated after the job starts.
type RunContext struct {
	Job         types.Job
	DatasetType engine.DatasetType

	// Name is the file-system safe dataset name.
	Name string

	// Staging is the canonical staged copy inside the temp geodatabase
	// that every exporter reads from.
	Staging string

	Engine engine.Engine
	Store  *store.Store
	Cfg    types.ExportConfig
	Log    zerolog.Logger
}

// NewRunContext builds the immutable per-job context. The staging path is
// deterministic, so it is fixed here even before the staging step runs.
func NewRunContext(job types.Job, dt engine.DatasetType, eng engine.Engine, st *store.Store, cfg types.ExportConfig, log zerolog.Logger) *RunContext {
	name := job.FileName()
	return &RunContext{
		Job:         job,
		DatasetType: dt,
		Name:        name,
		Staging:     filepath.Join(st.TempDir, types.FormatGeodatabase.Subfolder(), name+".gdb", name),
		Engine:      eng,
		Store:       st,
		Cfg:         cfg,
		Log:         log,
	}
}

func (rc *RunContext) nullSentinel() string {
	if rc.Cfg.NullSentinel != "" {
		return rc.Cfg.NullSentinel
	}
	return defaultNullSentinel
}

// artifact builds the Artifact record for a freshly published file.
func (rc *RunContext) artifact(f types.Format, path string) *types.Artifact {
	return &types.Artifact{
		Format:      f,
		Path:        path,
		Size:        rc.Store.FileSize(path),
		MIMEType:    f.MIMEType(),
		Name:        rc.Job.DisplayName + " - " + f.Label(),
		Description: rc.Job.DisplayName + " - " + f.Description(),
	}
}
