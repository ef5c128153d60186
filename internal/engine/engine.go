// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine defines the boundary to the spatial-data engine: the
// external capability that reads workspaces, copies and converts features,
// and manages file geodatabase containers. The pipeline treats it as opaque;
// implementations wrap GDAL/OGR command-line tools or hold datasets in
// memory for dry runs and tests.
package engine

// DatasetType classifies a source dataset.
type DatasetType string

const (
	// TypeFeatureClass is a spatial dataset with geometry.
	TypeFeatureClass DatasetType = "FeatureClass"
	// TypeTable is a non-spatial attribute table.
	TypeTable DatasetType = "Table"
)

// FieldType classifies an attribute column.
type FieldType string

const (
	FieldString   FieldType = "String"
	FieldInteger  FieldType = "Integer"
	FieldReal     FieldType = "Real"
	FieldDate     FieldType = "Date"
	FieldGeometry FieldType = "Geometry"
)

// Numeric reports whether values of this type are written unquoted in
// delimited text output.
func (t FieldType) Numeric() bool {
	return t == FieldInteger || t == FieldReal
}

// Field describes one attribute column.
type Field struct {
	Name string
	Type FieldType
}

// CopyOptions control feature copies and conversions.
type CopyOptions struct {
	// OutputSRID reprojects to the given projected system. Zero keeps the
	// source projection.
	OutputSRID int

	// TargetWGS84 reprojects to geographic WGS84.
	TargetWGS84 bool

	// Transformation names the datum transformation to apply when
	// reprojecting (e.g. "NAD_1983_To_WGS_1984_5").
	Transformation string
}

// ReadCursor iterates dataset records, returning one value per requested
// field in request order.
type ReadCursor interface {
	// Next returns the next record's values, or false when exhausted.
	Next() ([]any, bool)
	// Err returns the first iteration error, if any.
	Err() error
	Close() error
}

// UpdateCursor iterates dataset records and writes field values back.
type UpdateCursor interface {
	// Next advances to the next record, returning false when exhausted.
	Next() bool
	// Value returns the current record's value for the named field.
	Value(field string) (any, error)
	// SetValue stages a new value for the named field on the current record.
	SetValue(field string, v any) error
	// Update commits the staged values for the current record.
	Update() error
	// Err returns the first iteration error, if any.
	Err() error
	Close() error
}

// Engine is the spatial-data collaborator capability set.
type Engine interface {
	// Describe reports whether the dataset at path is spatial or tabular.
	Describe(path string) (DatasetType, error)

	// Exists reports whether a dataset or container exists at path.
	Exists(path string) bool

	// CreateFileGDB creates an empty file geodatabase dir/name.gdb
	// compatible with the given version token.
	CreateFileGDB(dir, name, version string) error

	// CopyFeatures copies a feature class from src to dst, applying the
	// projection options. The destination format follows from the dst path.
	CopyFeatures(src, dst string, opts CopyOptions) error

	// TableToGeodatabase copies a non-spatial table into a geodatabase
	// under the given table name.
	TableToGeodatabase(src, gdb, name string) error

	// ExportCAD converts a feature class to a CAD drawing file.
	ExportCAD(src, dst string) error

	// ExportKML converts an already WGS84 feature class to a KML document.
	ExportKML(src, dst string) error

	// FeaturesToJSON converts an already WGS84 feature class to GeoJSON.
	FeaturesToJSON(src, dst string) error

	// ListFields enumerates the attribute columns of a dataset.
	ListFields(path string) ([]Field, error)

	// DropFields removes the named columns from a dataset.
	DropFields(path string, fields []string) error

	// SearchRows opens a read cursor over the named fields.
	SearchRows(path string, fields []string) (ReadCursor, error)

	// UpdateRows opens an update cursor over the dataset.
	UpdateRows(path string) (UpdateCursor, error)

	// ExportMetadata writes the dataset's descriptive metadata document
	// to dst.
	ExportMetadata(src, dst string) error

	// TransformMetadata applies an XSLT stylesheet to a metadata document.
	TransformMetadata(src, stylesheet, dst string) error

	// ImportMetadata attaches a metadata document to a dataset so later
	// steps observe the same metadata.
	ImportMetadata(doc, target string) error

	// CheckoutExtension acquires an optional engine feature license
	// (e.g. "3D" for KML conversion). Engines without licensing no-op.
	CheckoutExtension(name string) error

	// Delete removes a dataset through the engine, releasing any locks the
	// engine holds on it. Required for geodatabase containers, whose locks
	// an ordinary recursive delete cannot break.
	Delete(path string) error
}
