// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"path/filepath"

	"github.com/meshintel/geopublish/pkg/types"
)

// CADExporter converts the staged dataset to a CAD drawing file. The
// drawing is published as-is, not archived.
type CADExporter struct{}

func (CADExporter) Format() types.Format { return types.FormatCAD }

func (CADExporter) Export(rc *RunContext) (*types.Artifact, error) {
	folder, err := rc.Store.TempFormatFolder(types.FormatCAD, true)
	if err != nil {
		return nil, err
	}

	filename := rc.Name + ".dwg"
	destination := filepath.Join(folder, filename)
	rc.Log.Debug().Str("from", rc.Staging).Str("to", destination).Msg("exporting to DWG file")
	if err := rc.Engine.ExportCAD(rc.Staging, destination); err != nil {
		return nil, err
	}

	published, err := rc.Store.Publish(folder, filename, types.FormatCAD)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatCAD, published), nil
}
