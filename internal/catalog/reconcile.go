// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/pkg/types"
)

// resourceTemplate fixes how one format's resource entry is rendered.
type resourceTemplate struct {
	// recordFormat is the format tag stored on the resource. The metadata
	// resource is stored under "xml".
	recordFormat string

	// useTitle selects the record title over the file name as the base of
	// the resource name and description.
	useTitle bool

	resourceType string
}

// resourceTemplates maps each publishable format to its template. Formats
// without a template are not reconciled.
var resourceTemplates = map[types.Format]resourceTemplate{
	types.FormatShapefile:   {recordFormat: "shp", resourceType: types.ResourceTypeFile},
	types.FormatCAD:         {recordFormat: "dwg", resourceType: types.ResourceTypeFile},
	types.FormatKML:         {recordFormat: "kml", useTitle: true, resourceType: types.ResourceTypeFile},
	types.FormatGeoJSON:     {recordFormat: "json", resourceType: types.ResourceTypeFile},
	types.FormatCSV:         {recordFormat: "csv", useTitle: true, resourceType: types.ResourceTypeFile},
	types.FormatMetadata:    {recordFormat: "xml", useTitle: true, resourceType: types.ResourceTypeMetadata},
	types.FormatGeodatabase: {recordFormat: "gdb", useTitle: true, resourceType: types.ResourceTypeFile},
}

// DownloadURL builds the public download URL for a dataset file name and
// format. It is pure and deterministic: the same name and format always
// yield the same URL.
func DownloadURL(base, fileName string, f types.Format) string {
	return strings.TrimRight(base, "/") + "/" + fileName + "/" + f.Subfolder() + "/" + f.Filename(fileName)
}

// Sizer resolves published artifact locations and byte sizes.
type Sizer interface {
	OutputPath(f types.Format, filename string) string
	FileSize(path string) *int64
}

// ReconcileResources inserts or updates one resource per requested format
// on the record. Every resource field is recomputed from the dataset's
// names and the configured download base, so reconciling twice with the
// same inputs is idempotent. Byte size is attached only when the published
// file is currently readable; a missing file does not block reconciliation.
func ReconcileResources(rec *types.Record, job types.Job, title string, cfg types.CatalogConfig, sizes Sizer, log zerolog.Logger) {
	fileName := job.FileName()
	for _, f := range job.Formats {
		tpl, ok := resourceTemplates[f]
		if !ok {
			continue
		}

		res := rec.ResourceByFormat(tpl.recordFormat)
		if res == nil {
			log.Info().Str("format", tpl.recordFormat).Msg("creating new resource")
			rec.Resources = append(rec.Resources, types.Resource{})
			res = &rec.Resources[len(rec.Resources)-1]
		} else {
			log.Info().Str("format", tpl.recordFormat).Msg("updating resource")
		}

		base := fileName
		if tpl.useTitle {
			base = title
		}
		res.Name = base + " - " + f.Label()
		res.Description = base + " - " + f.Description()
		res.URL = DownloadURL(cfg.DownloadURL, fileName, f)
		res.MIMEType = f.MIMEType()
		res.Format = tpl.recordFormat
		res.Type = tpl.resourceType

		if size := sizes.FileSize(sizes.OutputPath(f, f.Filename(fileName))); size != nil {
			res.Size = size
		}
	}
}
