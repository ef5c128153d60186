// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MemoryDataset is one dataset held by the in-memory engine.
type MemoryDataset struct {
	Type     DatasetType
	Fields   []Field
	Rows     []map[string]any
	Metadata string
}

func (d *MemoryDataset) clone() *MemoryDataset {
	c := &MemoryDataset{
		Type:     d.Type,
		Fields:   append([]Field(nil), d.Fields...),
		Metadata: d.Metadata,
	}
	for _, row := range d.Rows {
		dup := make(map[string]any, len(row))
		for k, v := range row {
			dup[k] = v
		}
		c.Rows = append(c.Rows, dup)
	}
	return c
}

// MemoryEngine is an in-memory Engine used for dry runs and tests. Export
// destinations are written to disk as placeholder or JSON content so the
// publish and archive steps operate on real files.
type MemoryEngine struct {
	datasets map[string]*MemoryDataset

	// Fail injects an error for the named operation (e.g. "ExportCAD").
	Fail map[string]error

	// UpdateHook, when set, runs before each update-cursor commit and can
	// reject individual records.
	UpdateHook func(row map[string]any) error
}

// NewMemory returns an empty in-memory engine.
func NewMemory() *MemoryEngine {
	return &MemoryEngine{datasets: make(map[string]*MemoryDataset)}
}

// Seed registers a dataset at path.
func (e *MemoryEngine) Seed(path string, d *MemoryDataset) {
	e.datasets[path] = d
}

// Dataset returns the dataset registered at path, or nil.
func (e *MemoryEngine) Dataset(path string) *MemoryDataset {
	return e.datasets[path]
}

func (e *MemoryEngine) failure(op string) error {
	if err, ok := e.Fail[op]; ok {
		return err
	}
	return nil
}

func (e *MemoryEngine) lookup(path string) (*MemoryDataset, error) {
	d, ok := e.datasets[path]
	if !ok {
		return nil, fmt.Errorf("no dataset at %s", path)
	}
	return d, nil
}

func (e *MemoryEngine) Describe(path string) (DatasetType, error) {
	if err := e.failure("Describe"); err != nil {
		return "", err
	}
	d, err := e.lookup(path)
	if err != nil {
		return "", err
	}
	return d.Type, nil
}

func (e *MemoryEngine) Exists(path string) bool {
	if _, ok := e.datasets[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// CreateFileGDB creates the container directory with a lock file, the way a
// real engine holds a schema lock on an open geodatabase.
func (e *MemoryEngine) CreateFileGDB(dir, name, version string) error {
	if err := e.failure("CreateFileGDB"); err != nil {
		return err
	}
	gdb := filepath.Join(dir, name+".gdb")
	if err := os.MkdirAll(gdb, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(gdb, "gdb"), []byte(version), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(gdb, "_gdb.lock"), nil, 0o644)
}

func (e *MemoryEngine) CopyFeatures(src, dst string, opts CopyOptions) error {
	if err := e.failure("CopyFeatures"); err != nil {
		return err
	}
	d, err := e.lookup(src)
	if err != nil {
		return err
	}
	e.datasets[dst] = d.clone()
	return e.writeDatasetFiles(dst)
}

func (e *MemoryEngine) TableToGeodatabase(src, gdb, name string) error {
	if err := e.failure("TableToGeodatabase"); err != nil {
		return err
	}
	d, err := e.lookup(src)
	if err != nil {
		return err
	}
	dst := filepath.Join(gdb, name)
	e.datasets[dst] = d.clone()
	return e.writeDatasetFiles(dst)
}

// writeDatasetFiles materializes placeholder files for a copied dataset so
// archive and publish steps see real content.
func (e *MemoryEngine) writeDatasetFiles(dst string) error {
	if strings.HasSuffix(filepath.Dir(dst), ".gdb") {
		gdb := filepath.Dir(dst)
		if err := os.MkdirAll(gdb, 0o755); err != nil {
			return err
		}
		name := filepath.Base(dst)
		if err := os.WriteFile(filepath.Join(gdb, "a0000."+name), []byte(name), 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(gdb, "_gdb.lock"), nil, 0o644)
	}
	if filepath.Ext(dst) == ".shp" {
		base := strings.TrimSuffix(dst, ".shp")
		for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
			if err := os.WriteFile(base+ext, []byte(filepath.Base(base)+ext), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
	return os.WriteFile(dst, []byte(filepath.Base(dst)), 0o644)
}

func (e *MemoryEngine) ExportCAD(src, dst string) error {
	if err := e.failure("ExportCAD"); err != nil {
		return err
	}
	if _, err := e.lookup(src); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("cad drawing"), 0o644)
}

func (e *MemoryEngine) ExportKML(src, dst string) error {
	if err := e.failure("ExportKML"); err != nil {
		return err
	}
	if _, err := e.lookup(src); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("<kml/>"), 0o644)
}

func (e *MemoryEngine) FeaturesToJSON(src, dst string) error {
	if err := e.failure("FeaturesToJSON"); err != nil {
		return err
	}
	d, err := e.lookup(src)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{"features": d.Rows})
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func (e *MemoryEngine) ListFields(path string) ([]Field, error) {
	if err := e.failure("ListFields"); err != nil {
		return nil, err
	}
	d, err := e.lookup(path)
	if err != nil {
		return nil, err
	}
	return append([]Field(nil), d.Fields...), nil
}

func (e *MemoryEngine) DropFields(path string, fields []string) error {
	if err := e.failure("DropFields"); err != nil {
		return err
	}
	d, err := e.lookup(path)
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(fields))
	for _, f := range fields {
		drop[strings.ToLower(f)] = true
	}
	var kept []Field
	for _, f := range d.Fields {
		if !drop[strings.ToLower(f.Name)] {
			kept = append(kept, f)
		}
	}
	d.Fields = kept
	for _, row := range d.Rows {
		for k := range row {
			if drop[strings.ToLower(k)] {
				delete(row, k)
			}
		}
	}
	return nil
}

func (e *MemoryEngine) SearchRows(path string, fields []string) (ReadCursor, error) {
	if err := e.failure("SearchRows"); err != nil {
		return nil, err
	}
	d, err := e.lookup(path)
	if err != nil {
		return nil, err
	}
	return &memReadCursor{dataset: d, fields: fields}, nil
}

type memReadCursor struct {
	dataset *MemoryDataset
	fields  []string
	idx     int
}

func (c *memReadCursor) Next() ([]any, bool) {
	if c.idx >= len(c.dataset.Rows) {
		return nil, false
	}
	row := c.dataset.Rows[c.idx]
	c.idx++
	vals := make([]any, len(c.fields))
	for i, f := range c.fields {
		vals[i] = row[f]
	}
	return vals, true
}

func (c *memReadCursor) Err() error   { return nil }
func (c *memReadCursor) Close() error { return nil }

func (e *MemoryEngine) UpdateRows(path string) (UpdateCursor, error) {
	if err := e.failure("UpdateRows"); err != nil {
		return nil, err
	}
	d, err := e.lookup(path)
	if err != nil {
		return nil, err
	}
	return &memUpdateCursor{eng: e, dataset: d, idx: -1}, nil
}

type memUpdateCursor struct {
	eng     *MemoryEngine
	dataset *MemoryDataset
	idx     int
	staged  map[string]any
}

func (c *memUpdateCursor) Next() bool {
	c.idx++
	c.staged = nil
	return c.idx < len(c.dataset.Rows)
}

func (c *memUpdateCursor) Value(field string) (any, error) {
	v, ok := c.dataset.Rows[c.idx][field]
	if !ok {
		return nil, fmt.Errorf("no field %q", field)
	}
	return v, nil
}

func (c *memUpdateCursor) SetValue(field string, v any) error {
	if c.staged == nil {
		c.staged = make(map[string]any)
	}
	c.staged[field] = v
	return nil
}

func (c *memUpdateCursor) Update() error {
	if c.eng.UpdateHook != nil {
		if err := c.eng.UpdateHook(c.dataset.Rows[c.idx]); err != nil {
			return err
		}
	}
	for k, v := range c.staged {
		c.dataset.Rows[c.idx][k] = v
	}
	return nil
}

func (c *memUpdateCursor) Err() error   { return nil }
func (c *memUpdateCursor) Close() error { return nil }

const defaultMetadata = `<?xml version="1.0"?>
<metadata>
  <idinfo>
    <descript>
      <abstract></abstract>
    </descript>
  </idinfo>
</metadata>
`

func (e *MemoryEngine) ExportMetadata(src, dst string) error {
	if err := e.failure("ExportMetadata"); err != nil {
		return err
	}
	d, err := e.lookup(src)
	if err != nil {
		return err
	}
	doc := d.Metadata
	if doc == "" {
		doc = defaultMetadata
	}
	return os.WriteFile(dst, []byte(doc), 0o644)
}

func (e *MemoryEngine) TransformMetadata(src, stylesheet, dst string) error {
	if err := e.failure("TransformMetadata"); err != nil {
		return err
	}
	return copyFileContents(src, dst)
}

func (e *MemoryEngine) ImportMetadata(doc, target string) error {
	if err := e.failure("ImportMetadata"); err != nil {
		return err
	}
	data, err := os.ReadFile(doc)
	if err != nil {
		return err
	}
	d, err := e.lookup(target)
	if err != nil {
		return err
	}
	d.Metadata = string(data)
	return nil
}

func (e *MemoryEngine) CheckoutExtension(name string) error {
	return e.failure("CheckoutExtension")
}

func (e *MemoryEngine) Delete(path string) error {
	if err := e.failure("Delete"); err != nil {
		return err
	}
	delete(e.datasets, path)
	for registered := range e.datasets {
		if strings.HasPrefix(registered, path+string(filepath.Separator)) {
			delete(e.datasets, registered)
		}
	}
	return os.RemoveAll(path)
}
