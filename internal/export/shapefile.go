// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"path/filepath"

	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/internal/store"
	"github.com/meshintel/geopublish/pkg/types"
)

// ShapefileExporter converts the staged dataset to a shapefile and publishes
// it as a zip archive containing the per-format sidecar files.
type ShapefileExporter struct{}

func (ShapefileExporter) Format() types.Format { return types.FormatShapefile }

func (ShapefileExporter) Export(rc *RunContext) (*types.Artifact, error) {
	folder, err := rc.Store.TempFormatFolder(types.FormatShapefile, true)
	if err != nil {
		return nil, err
	}

	// The shapefile goes into its own folder so the sidecars can be zipped
	// together.
	zipFolder, err := rc.Store.EnsureFolder(filepath.Join(folder, rc.Name), false)
	if err != nil {
		return nil, err
	}

	destination := filepath.Join(zipFolder, rc.Name+".shp")
	rc.Log.Debug().Str("from", rc.Staging).Str("to", destination).Msg("exporting to shapefile")
	if err := rc.Engine.CopyFeatures(rc.Staging, destination, engine.CopyOptions{}); err != nil {
		return nil, err
	}

	zipName := rc.Name + ".zip"
	rc.Log.Debug().Msg("zipping the shapefile")
	if err := rc.Store.ZipDir(zipFolder, filepath.Join(folder, zipName), store.ZipOptions{}); err != nil {
		return nil, err
	}

	published, err := rc.Store.Publish(folder, zipName, types.FormatShapefile)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatShapefile, published), nil
}
