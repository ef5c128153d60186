// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export implements the per-format exporters that turn a staged
// dataset into public output files. Each exporter reads the staged copy in
// the temp geodatabase, writes into its own temp format folder, and
// publishes the finished file into the output tree.
package export

import (
	"fmt"

	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/pkg/types"
)

// Exporter is one format-specific export capability.
type Exporter interface {
	Format() types.Format
	// Export produces and publishes the format's artifact from the staged
	// dataset.
	Export(rc *RunContext) (*types.Artifact, error)
}

// runOrder is the fixed order formats are exported in after staging.
var runOrder = []Exporter{
	ShapefileExporter{},
	MetadataExporter{},
	GeodatabaseExporter{},
	CADExporter{},
	GeoJSONExporter{},
	KMLExporter{},
	CSVExporter{},
}

// Applicable reports whether a format runs for the dataset type. Non-spatial
// tables only produce the geodatabase and CSV outputs.
func Applicable(f types.Format, dt engine.DatasetType) bool {
	return dt != engine.TypeTable || !f.SpatialOnly()
}

// Run executes every requested format in the fixed order, collecting one
// Result per format. A format failure is logged and recorded but never
// aborts the remaining formats.
func Run(rc *RunContext) []types.Result {
	results := make([]types.Result, 0, len(rc.Job.Formats))
	for _, ex := range runOrder {
		f := ex.Format()
		if !rc.Job.HasFormat(f) {
			continue
		}
		if !Applicable(f, rc.DatasetType) {
			rc.Log.Info().Str("format", string(f)).Msg("skipping format: not applicable to non-spatial tables")
			results = append(results, types.Result{
				Format:     f,
				Skipped:    true,
				SkipReason: "not applicable to non-spatial tables",
			})
			continue
		}

		rc.Log.Info().Str("format", string(f)).Msg("exporting format")
		artifact, err := ex.Export(rc)
		if err != nil {
			rc.Log.Error().Err(err).
				Str("dataset", rc.Job.DisplayName).
				Str("format", string(f)).
				Msg("error publishing format")
			results = append(results, types.Result{
				Format: f,
				Err:    fmt.Errorf("exporting %s: %w", f, err),
			})
			continue
		}
		results = append(results, types.Result{Format: f, Artifact: artifact})
	}
	return results
}
