// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"path/filepath"

	"github.com/meshintel/geopublish/pkg/types"
)

// GeoJSONExporter converts the staged dataset to GeoJSON. The conversion
// goes through a WGS84 working copy to remove true curves and literal null
// markers the JSON writer cannot represent.
type GeoJSONExporter struct{}

func (GeoJSONExporter) Format() types.Format { return types.FormatGeoJSON }

func (GeoJSONExporter) Export(rc *RunContext) (*types.Artifact, error) {
	folder, err := rc.Store.TempFormatFolder(types.FormatGeoJSON, true)
	if err != nil {
		return nil, err
	}

	working, err := materializeWGS84(rc, folder)
	if err != nil {
		return nil, err
	}

	filename := rc.Name + ".json"
	destination := filepath.Join(folder, filename)
	rc.Log.Debug().Str("from", working).Str("to", destination).Msg("exporting the JSON file")
	if err := rc.Engine.FeaturesToJSON(working, destination); err != nil {
		return nil, err
	}
	discardWorkingCopy(rc, working)

	published, err := rc.Store.Publish(folder, filename, types.FormatGeoJSON)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatGeoJSON, published), nil
}
