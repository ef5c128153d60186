// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Format identifies one public output file format.
type Format string

const (
	FormatShapefile   Format = "shp"
	FormatCAD         Format = "dwg"
	FormatKML         Format = "kml"
	FormatGeoJSON     Format = "json"
	FormatCSV         Format = "csv"
	FormatMetadata    Format = "metadata"
	FormatGeodatabase Format = "gdb"
)

// AllFormats lists every known format in jobs-file order.
var AllFormats = []Format{
	FormatShapefile,
	FormatCAD,
	FormatKML,
	FormatGeoJSON,
	FormatCSV,
	FormatMetadata,
	FormatGeodatabase,
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	for _, known := range AllFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Subfolder returns the output-tree subfolder for the format. The CAD
// drawing is the only format whose subfolder differs from its tag.
func (f Format) Subfolder() string {
	if f == FormatCAD {
		return "cad"
	}
	return string(f)
}

// Ext returns the published file extension (without the dot). Shapefile and
// geodatabase artifacts are published as zip archives, KML as a KMZ.
func (f Format) Ext() string {
	switch f {
	case FormatShapefile, FormatGeodatabase:
		return "zip"
	case FormatCAD:
		return "dwg"
	case FormatKML:
		return "kmz"
	case FormatGeoJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatMetadata:
		return "xml"
	}
	return string(f)
}

// Filename returns the published file name for a dataset file name.
func (f Format) Filename(name string) string {
	return name + "." + f.Ext()
}

// MIMEType returns the MIME type published with the artifact.
func (f Format) MIMEType() string {
	switch f {
	case FormatShapefile, FormatGeodatabase:
		return "application/zip"
	case FormatCAD:
		return "application/acad"
	case FormatKML:
		return "application/vnd.google-earth.kmz"
	case FormatGeoJSON:
		return "text/json"
	case FormatCSV:
		return "text/csv"
	case FormatMetadata:
		return "application/xml"
	}
	return "application/octet-stream"
}

// Label returns the short resource label (e.g. "SHP").
func (f Format) Label() string {
	if f == FormatMetadata {
		return "Metadata"
	}
	return strings.ToUpper(string(f))
}

// Description returns the long resource label (e.g. "Shapefile").
func (f Format) Description() string {
	switch f {
	case FormatShapefile:
		return "Shapefile"
	case FormatCAD:
		return "AutoCAD DWG"
	case FormatKML:
		return "Google KML"
	case FormatGeoJSON:
		return "JSON"
	case FormatCSV:
		return "Comma-Separated Values"
	case FormatMetadata:
		return "Metadata"
	case FormatGeodatabase:
		return "Esri File Geodatabase"
	}
	return string(f)
}

// SpatialOnly reports whether the format only runs for datasets with
// geometry. Non-spatial tables still export CSV and geodatabase.
func (f Format) SpatialOnly() bool {
	switch f {
	case FormatCSV, FormatGeodatabase:
		return false
	}
	return true
}

// ParseFormats parses a comma-separated format list, preserving order and
// removing duplicates. An unknown format tag is an error.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := Format(strings.ToLower(part))
		if !f.Valid() {
			return nil, fmt.Errorf("unknown export format %q", part)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats, nil
}
