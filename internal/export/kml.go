// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"path/filepath"

	"github.com/meshintel/geopublish/pkg/types"
)

// KMLExporter converts the staged dataset to KML and publishes it as a KMZ
// archive. The conversion requires the engine's 3D extension.
type KMLExporter struct{}

func (KMLExporter) Format() types.Format { return types.FormatKML }

func (KMLExporter) Export(rc *RunContext) (*types.Artifact, error) {
	if err := rc.Engine.CheckoutExtension("3D"); err != nil {
		return nil, err
	}

	folder, err := rc.Store.TempFormatFolder(types.FormatKML, true)
	if err != nil {
		return nil, err
	}

	working, err := materializeWGS84(rc, folder)
	if err != nil {
		return nil, err
	}

	kmlPath := filepath.Join(folder, rc.Name+".kml")
	rc.Log.Debug().Str("to", kmlPath).Msg("exporting KML file")
	if err := rc.Engine.ExportKML(working, kmlPath); err != nil {
		return nil, err
	}
	discardWorkingCopy(rc, working)

	kmzName := rc.Name + ".kmz"
	if err := rc.Store.ZipFiles(filepath.Join(folder, kmzName), map[string]string{
		"doc.kml": kmlPath,
	}); err != nil {
		return nil, err
	}

	published, err := rc.Store.Publish(folder, kmzName, types.FormatKML)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatKML, published), nil
}
