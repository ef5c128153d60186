// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// OGREngine drives the GDAL/OGR command-line tools (ogr2ogr, ogrinfo) plus
// xsltproc for metadata stylesheets. Tool paths are overridable for
// non-standard installs.
type OGREngine struct {
	OGR2OGR  string
	OGRInfo  string
	XSLTProc string
}

// NewOGR returns an engine using the tools from PATH.
func NewOGR() *OGREngine {
	return &OGREngine{
		OGR2OGR:  "ogr2ogr",
		OGRInfo:  "ogrinfo",
		XSLTProc: "xsltproc",
	}
}

func (e *OGREngine) run(bin string, args ...string) (string, error) {
	out, err := exec.Command(bin, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, firstLine(out))
	}
	return string(out), nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// containerExts are datasource containers whose children are layers.
var containerExts = []string{".gdb", ".sde", ".gpkg"}

// splitDatasource splits a dataset path into the OGR datasource and the
// layer name inside it. Plain file datasets (shapefiles and friends) are
// their own datasource with no layer component.
func splitDatasource(path string) (ds, layer string) {
	dir := filepath.Dir(path)
	for _, ext := range containerExts {
		if strings.HasSuffix(dir, ext) {
			return dir, filepath.Base(path)
		}
	}
	return path, ""
}

// layerName returns the layer the OGR SQL dialect addresses for a path.
func layerName(path string) string {
	_, layer := splitDatasource(path)
	if layer != "" {
		return layer
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// driverFor maps a destination path to the OGR output driver.
func driverFor(dst string) string {
	if strings.HasSuffix(filepath.Dir(dst), ".gdb") || strings.HasSuffix(dst, ".gdb") {
		return "OpenFileGDB"
	}
	switch filepath.Ext(dst) {
	case ".shp":
		return "ESRI Shapefile"
	case ".dwg", ".dxf":
		return "DXF"
	case ".kml", ".kmz":
		return "LIBKML"
	case ".json", ".geojson":
		return "GeoJSON"
	case ".csv":
		return "CSV"
	}
	return "ESRI Shapefile"
}

func sourceArgs(src string) []string {
	ds, layer := splitDatasource(src)
	args := []string{ds}
	if layer != "" {
		args = append(args, layer)
	}
	return args
}

func projectionArgs(opts CopyOptions) []string {
	var args []string
	if opts.TargetWGS84 {
		args = append(args, "-t_srs", "EPSG:4326")
	} else if opts.OutputSRID != 0 {
		args = append(args, "-t_srs", fmt.Sprintf("EPSG:%d", opts.OutputSRID))
	}
	if opts.Transformation != "" {
		args = append(args, "-ct", opts.Transformation)
	}
	return args
}

func (e *OGREngine) Describe(path string) (DatasetType, error) {
	ds, layer := splitDatasource(path)
	args := []string{"-ro", "-so", "-q", ds}
	if layer != "" {
		args = append(args, layer)
	}
	out, err := e.run(e.OGRInfo, args...)
	if err != nil {
		return "", fmt.Errorf("describing %s: %w", path, err)
	}
	return parseDatasetType(out)
}

var layerLineRe = regexp.MustCompile(`(?m)^\d+: \S+ \(([^)]+)\)`)

func parseDatasetType(out string) (DatasetType, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Geometry:") {
			if strings.TrimSpace(strings.TrimPrefix(line, "Geometry:")) == "None" {
				return TypeTable, nil
			}
			return TypeFeatureClass, nil
		}
	}
	if m := layerLineRe.FindStringSubmatch(out); m != nil {
		if m[1] == "None" {
			return TypeTable, nil
		}
		return TypeFeatureClass, nil
	}
	return "", fmt.Errorf("could not determine dataset type from layer summary")
}

func (e *OGREngine) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateFileGDB prepares the parent directory for a file geodatabase. The
// OpenFileGDB driver materializes the container on the first write, so the
// compatibility version token is accepted for interface parity only.
func (e *OGREngine) CreateFileGDB(dir, name, version string) error {
	_ = version
	_ = name
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating geodatabase parent %s: %w", dir, err)
	}
	return nil
}

func (e *OGREngine) CopyFeatures(src, dst string, opts CopyOptions) error {
	dstDS, dstLayer := splitDatasource(dst)
	args := []string{"-f", driverFor(dst), "-overwrite", dstDS}
	args = append(args, sourceArgs(src)...)
	if dstLayer != "" {
		args = append(args, "-nln", dstLayer)
	}
	args = append(args, projectionArgs(opts)...)
	if _, err := e.run(e.OGR2OGR, args...); err != nil {
		return fmt.Errorf("copying features %s to %s: %w", src, dst, err)
	}
	return nil
}

func (e *OGREngine) TableToGeodatabase(src, gdb, name string) error {
	args := []string{"-f", "OpenFileGDB", "-overwrite", gdb}
	args = append(args, sourceArgs(src)...)
	args = append(args, "-nln", name)
	if _, err := e.run(e.OGR2OGR, args...); err != nil {
		return fmt.Errorf("copying table %s to %s: %w", src, gdb, err)
	}
	return nil
}

func (e *OGREngine) ExportCAD(src, dst string) error {
	args := []string{"-f", "DXF", dst}
	args = append(args, sourceArgs(src)...)
	if _, err := e.run(e.OGR2OGR, args...); err != nil {
		return fmt.Errorf("exporting CAD drawing %s: %w", dst, err)
	}
	return nil
}

func (e *OGREngine) ExportKML(src, dst string) error {
	args := []string{"-f", "LIBKML", dst}
	args = append(args, sourceArgs(src)...)
	if _, err := e.run(e.OGR2OGR, args...); err != nil {
		return fmt.Errorf("exporting KML %s: %w", dst, err)
	}
	return nil
}

func (e *OGREngine) FeaturesToJSON(src, dst string) error {
	args := []string{"-f", "GeoJSON", dst}
	args = append(args, sourceArgs(src)...)
	if _, err := e.run(e.OGR2OGR, args...); err != nil {
		return fmt.Errorf("exporting GeoJSON %s: %w", dst, err)
	}
	return nil
}

var fieldLineRe = regexp.MustCompile(`(?m)^\s*(\w+): (String|Integer64|Integer|Real|Date|DateTime|Time)`)

func (e *OGREngine) ListFields(path string) ([]Field, error) {
	ds, layer := splitDatasource(path)
	args := []string{"-ro", "-so", ds}
	if layer != "" {
		args = append(args, layer)
	}
	out, err := e.run(e.OGRInfo, args...)
	if err != nil {
		return nil, fmt.Errorf("listing fields of %s: %w", path, err)
	}
	return parseFields(out), nil
}

func parseFields(out string) []Field {
	var fields []Field
	for _, m := range fieldLineRe.FindAllStringSubmatch(out, -1) {
		fields = append(fields, Field{Name: m[1], Type: ogrFieldType(m[2])})
	}
	return fields
}

func ogrFieldType(t string) FieldType {
	switch t {
	case "Integer", "Integer64":
		return FieldInteger
	case "Real":
		return FieldReal
	case "Date", "DateTime", "Time":
		return FieldDate
	}
	return FieldString
}

func (e *OGREngine) DropFields(path string, fields []string) error {
	ds, _ := splitDatasource(path)
	layer := layerName(path)
	for _, f := range fields {
		sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", layer, f)
		if _, err := e.run(e.OGRInfo, ds, "-sql", sql); err != nil {
			return fmt.Errorf("dropping field %s from %s: %w", f, path, err)
		}
	}
	return nil
}

// SearchRows exports the requested columns to a temporary CSV and iterates
// it, converting values back to typed Go values using the field schema.
func (e *OGREngine) SearchRows(path string, fields []string) (ReadCursor, error) {
	schema, err := e.ListFields(path)
	if err != nil {
		return nil, err
	}
	tmpDir, err := os.MkdirTemp("", "geopublish-cursor-")
	if err != nil {
		return nil, fmt.Errorf("creating cursor workspace: %w", err)
	}
	csvPath := filepath.Join(tmpDir, "rows.csv")

	args := []string{"-f", "CSV", csvPath}
	args = append(args, sourceArgs(path)...)
	args = append(args, "-lco", "GEOMETRY=NO", "-select", strings.Join(fields, ","))
	if _, err := e.run(e.OGR2OGR, args...); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("materializing cursor for %s: %w", path, err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("opening cursor data: %w", err)
	}
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		f.Close()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("reading cursor header: %w", err)
	}

	types := make(map[string]FieldType, len(schema))
	for _, fld := range schema {
		types[strings.ToLower(fld.Name)] = fld.Type
	}
	cols := make([]int, len(fields))
	for i, want := range fields {
		cols[i] = -1
		for j, have := range header {
			if strings.EqualFold(have, want) {
				cols[i] = j
				break
			}
		}
	}

	return &ogrReadCursor{
		file:   f,
		reader: r,
		tmpDir: tmpDir,
		fields: fields,
		cols:   cols,
		types:  types,
	}, nil
}

type ogrReadCursor struct {
	file   *os.File
	reader *csv.Reader
	tmpDir string
	fields []string
	cols   []int
	types  map[string]FieldType
	err    error
}

func (c *ogrReadCursor) Next() ([]any, bool) {
	rec, err := c.reader.Read()
	if err == io.EOF {
		return nil, false
	}
	if err != nil {
		c.err = err
		return nil, false
	}
	vals := make([]any, len(c.fields))
	for i, col := range c.cols {
		if col < 0 || col >= len(rec) {
			vals[i] = nil
			continue
		}
		vals[i] = typedValue(rec[col], c.types[strings.ToLower(c.fields[i])])
	}
	return vals, true
}

func (c *ogrReadCursor) Err() error { return c.err }

func (c *ogrReadCursor) Close() error {
	err := c.file.Close()
	os.RemoveAll(c.tmpDir)
	return err
}

// typedValue converts a delimited-text value back to its schema type.
// Empty text is a null value.
func typedValue(s string, t FieldType) any {
	if s == "" {
		return nil
	}
	switch t {
	case FieldInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case FieldReal:
		if x, err := strconv.ParseFloat(s, 64); err == nil {
			return x
		}
	}
	return s
}

// UpdateRows opens an update cursor backed by per-record SQL updates in the
// SQLite dialect, addressing records by rowid. The pipeline only updates
// working shapefile copies, whose FIDs are dense and rowid-aligned.
func (e *OGREngine) UpdateRows(path string) (UpdateCursor, error) {
	schema, err := e.ListFields(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.Name
	}
	read, err := e.SearchRows(path, names)
	if err != nil {
		return nil, err
	}
	defer read.Close()

	var rows []map[string]any
	for {
		vals, ok := read.Next()
		if !ok {
			break
		}
		row := make(map[string]any, len(names))
		for i, n := range names {
			row[n] = vals[i]
		}
		rows = append(rows, row)
	}
	if err := read.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s for update: %w", path, err)
	}

	ds, _ := splitDatasource(path)
	return &ogrUpdateCursor{
		eng:   e,
		ds:    ds,
		layer: layerName(path),
		rows:  rows,
		idx:   -1,
	}, nil
}

type ogrUpdateCursor struct {
	eng    *OGREngine
	ds     string
	layer  string
	rows   []map[string]any
	idx    int
	staged map[string]any
	err    error
}

func (c *ogrUpdateCursor) Next() bool {
	c.idx++
	c.staged = nil
	return c.idx < len(c.rows)
}

func (c *ogrUpdateCursor) Value(field string) (any, error) {
	v, ok := c.rows[c.idx][field]
	if !ok {
		return nil, fmt.Errorf("no field %q in %s", field, c.layer)
	}
	return v, nil
}

func (c *ogrUpdateCursor) SetValue(field string, v any) error {
	if _, ok := c.rows[c.idx][field]; !ok {
		return fmt.Errorf("no field %q in %s", field, c.layer)
	}
	if c.staged == nil {
		c.staged = make(map[string]any)
	}
	c.staged[field] = v
	return nil
}

func (c *ogrUpdateCursor) Update() error {
	if len(c.staged) == 0 {
		return nil
	}
	var sets []string
	for f, v := range c.staged {
		sets = append(sets, fmt.Sprintf("%s = %s", f, sqlLiteral(v)))
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE rowid = %d",
		c.layer, strings.Join(sets, ", "), c.idx)
	if _, err := c.eng.run(c.eng.OGRInfo, c.ds, "-dialect", "SQLite", "-sql", sql); err != nil {
		return fmt.Errorf("updating record %d of %s: %w", c.idx, c.layer, err)
	}
	for f, v := range c.staged {
		c.rows[c.idx][f] = v
	}
	return nil
}

func (c *ogrUpdateCursor) Err() error   { return c.err }
func (c *ogrUpdateCursor) Close() error { return nil }

func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

// ExportMetadata copies the dataset's sidecar metadata document. OGR has no
// metadata exporter of its own; enterprise workspaces and shapefiles keep
// FGDC documents as .xml sidecars next to the dataset.
func (e *OGREngine) ExportMetadata(src, dst string) error {
	for _, candidate := range metadataCandidates(src) {
		if _, err := os.Stat(candidate); err == nil {
			return copyFileContents(candidate, dst)
		}
	}
	return fmt.Errorf("no metadata document found for %s", src)
}

func metadataCandidates(src string) []string {
	ds, layer := splitDatasource(src)
	candidates := []string{src + ".xml"}
	if layer != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(ds), layer+".xml"))
	}
	return candidates
}

func (e *OGREngine) TransformMetadata(src, stylesheet, dst string) error {
	if _, err := e.run(e.XSLTProc, "-o", dst, stylesheet, src); err != nil {
		return fmt.Errorf("transforming metadata %s: %w", src, err)
	}
	return nil
}

func (e *OGREngine) ImportMetadata(doc, target string) error {
	return copyFileContents(doc, target+".xml")
}

// CheckoutExtension is a no-op: OGR has no feature licensing.
func (e *OGREngine) CheckoutExtension(name string) error {
	return nil
}

// Delete removes a dataset, clearing geodatabase lock files first so the
// containing directory can be removed.
func (e *OGREngine) Delete(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		locks, _ := filepath.Glob(filepath.Join(path, "*.lock"))
		for _, lock := range locks {
			os.Remove(lock)
		}
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
