// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meshintel/geopublish/pkg/types"
)

// MetadataExporter exports the staged dataset's descriptive metadata to an
// XML document. When the configured stylesheet exists it is applied (to
// strip sensitive fields) and the clean document is re-imported onto the
// staged dataset so later steps observe the same metadata; when the
// stylesheet is absent the raw export is published verbatim with a warning.
type MetadataExporter struct{}

func (MetadataExporter) Format() types.Format { return types.FormatMetadata }

func (MetadataExporter) Export(rc *RunContext) (*types.Artifact, error) {
	folder, err := rc.Store.TempFormatFolder(types.FormatMetadata, true)
	if err != nil {
		return nil, err
	}

	raw := filepath.Join(folder, rc.Name+"_raw.xml")
	if err := rc.Engine.ExportMetadata(rc.Staging, raw); err != nil {
		return nil, fmt.Errorf("exporting metadata: %w", err)
	}

	filename := rc.Name + ".xml"
	destination := filepath.Join(folder, filename)

	if _, err := os.Stat(rc.Cfg.MetadataStylesheet); err == nil {
		rc.Log.Info().Str("stylesheet", rc.Cfg.MetadataStylesheet).Msg("applying metadata stylesheet")
		if err := rc.Engine.TransformMetadata(raw, rc.Cfg.MetadataStylesheet, destination); err != nil {
			return nil, fmt.Errorf("transforming metadata: %w", err)
		}
		rc.Log.Debug().Str("doc", destination).Msg("reimporting clean metadata onto staging dataset")
		if err := rc.Engine.ImportMetadata(destination, rc.Staging); err != nil {
			return nil, fmt.Errorf("reimporting metadata: %w", err)
		}
	} else {
		rc.Log.Warn().
			Str("dataset", rc.Job.DisplayName).
			Str("stylesheet", rc.Cfg.MetadataStylesheet).
			Msg("metadata stylesheet not found, publishing raw export")
		if err := os.Rename(raw, destination); err != nil {
			return nil, fmt.Errorf("renaming raw metadata: %w", err)
		}
	}

	published, err := rc.Store.Publish(folder, filename, types.FormatMetadata)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatMetadata, published), nil
}
