// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"path/filepath"

	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/internal/store"
	"github.com/meshintel/geopublish/pkg/types"
)

// Stage exports the source dataset into the temp file geodatabase. This
// always runs first when any format is requested: its output is the staged
// copy every other exporter reads from. Excluded fields are dropped from
// the staged copy afterwards, so no downstream format sees them.
func Stage(rc *RunContext) error {
	folder, err := rc.Store.TempFormatFolder(types.FormatGeodatabase, true)
	if err != nil {
		return err
	}

	gdb := filepath.Join(folder, rc.Name+".gdb")
	if !rc.Engine.Exists(gdb) {
		rc.Log.Debug().Str("path", gdb).Str("version", rc.Job.GDBVersion).Msg("creating temp file geodatabase")
		if err := rc.Engine.CreateFileGDB(folder, rc.Name, rc.Job.GDBVersion); err != nil {
			return fmt.Errorf("creating file geodatabase: %w", err)
		}
	}

	source := rc.Job.SourcePath()
	rc.Log.Debug().Str("from", source).Str("to", rc.Staging).Msg("copying source to staging")
	if rc.DatasetType == engine.TypeTable {
		if err := rc.Engine.TableToGeodatabase(source, gdb, rc.Name); err != nil {
			return fmt.Errorf("copying table to geodatabase: %w", err)
		}
	} else {
		opts := engine.CopyOptions{OutputSRID: rc.Cfg.OutputSRID}
		if err := rc.Engine.CopyFeatures(source, rc.Staging, opts); err != nil {
			return fmt.Errorf("copying features to geodatabase: %w", err)
		}
	}

	if len(rc.Job.ExcludeFields) > 0 {
		rc.Log.Info().Strs("fields", rc.Job.ExcludeFields).Msg("deleting excluded fields")
		if err := rc.Engine.DropFields(rc.Staging, rc.Job.ExcludeFields); err != nil {
			return fmt.Errorf("dropping excluded fields: %w", err)
		}
	}
	return nil
}

// GeodatabaseExporter publishes the already staged file geodatabase as a
// zip archive. Lock files are not archived.
type GeodatabaseExporter struct{}

func (GeodatabaseExporter) Format() types.Format { return types.FormatGeodatabase }

func (GeodatabaseExporter) Export(rc *RunContext) (*types.Artifact, error) {
	folder, err := rc.Store.TempFormatFolder(types.FormatGeodatabase, false)
	if err != nil {
		return nil, err
	}

	gdb := filepath.Join(folder, rc.Name+".gdb")
	zipName := rc.Name + ".zip"
	rc.Log.Debug().Str("path", gdb).Msg("zipping the file geodatabase")
	err = rc.Store.ZipDir(gdb, filepath.Join(folder, zipName), store.ZipOptions{
		Prefix:     rc.Name + ".gdb/",
		SkipSuffix: ".lock",
	})
	if err != nil {
		return nil, err
	}

	published, err := rc.Store.Publish(folder, zipName, types.FormatGeodatabase)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatGeodatabase, published), nil
}
