// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meshintel/geopublish/internal/engine"
)

// materializeWGS84 reprojects the staged dataset to geographic WGS84 with
// the configured transformation and materializes a working shapefile copy in
// folder. The copy's string fields are scrubbed of literal null markers
// before the caller converts it. The caller discards the copy when done.
func materializeWGS84(rc *RunContext, folder string) (string, error) {
	working := filepath.Join(folder, rc.Name+".shp")
	opts := engine.CopyOptions{
		TargetWGS84:    true,
		Transformation: rc.Cfg.WGS84Transformation,
	}
	rc.Log.Debug().Str("from", rc.Staging).Str("to", working).Msg("materializing WGS84 working copy")
	if err := rc.Engine.CopyFeatures(rc.Staging, working, opts); err != nil {
		return "", fmt.Errorf("materializing WGS84 copy: %w", err)
	}
	if err := scrubNullSentinels(rc, working); err != nil {
		return "", err
	}
	return working, nil
}

// discardWorkingCopy removes an intermediate copy through the engine.
func discardWorkingCopy(rc *RunContext, path string) {
	rc.Log.Debug().Str("path", path).Msg("discarding working copy")
	if err := rc.Engine.Delete(path); err != nil {
		rc.Log.Warn().Err(err).Str("path", path).Msg("could not discard working copy")
	}
}

// scrubNullSentinels replaces the literal placeholder null marker in
// string-typed fields with a true empty value. Only string fields are
// scanned. A single record's failure is logged and skipped; the scan
// continues.
func scrubNullSentinels(rc *RunContext, path string) error {
	fields, err := rc.Engine.ListFields(path)
	if err != nil {
		return fmt.Errorf("listing fields for null scrub: %w", err)
	}
	var stringFields []engine.Field
	for _, f := range fields {
		if f.Type == engine.FieldString {
			stringFields = append(stringFields, f)
		}
	}
	if len(stringFields) == 0 {
		return nil
	}

	sentinel := rc.nullSentinel()
	cursor, err := rc.Engine.UpdateRows(path)
	if err != nil {
		return fmt.Errorf("opening update cursor for null scrub: %w", err)
	}
	defer cursor.Close()

	rc.Log.Debug().Msg("start replacing literal nulls")
	for cursor.Next() {
		changed := false
		for _, f := range stringFields {
			v, err := cursor.Value(f.Name)
			if err != nil {
				continue
			}
			s, ok := v.(string)
			if !ok || !strings.Contains(s, sentinel) {
				continue
			}
			rc.Log.Debug().Str("field", f.Name).Msg("found a null marker to scrub")
			if err := cursor.SetValue(f.Name, ""); err != nil {
				rc.Log.Debug().Err(err).Str("field", f.Name).Msg("could not stage null scrub")
				continue
			}
			changed = true
		}
		if changed {
			if err := cursor.Update(); err != nil {
				rc.Log.Debug().Err(err).Msg("record failed null scrub, continuing")
			}
		}
	}
	rc.Log.Debug().Str("path", path).Msg("done replacing literal nulls")
	return cursor.Err()
}
