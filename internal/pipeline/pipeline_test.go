// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/internal/catalog"
	"github.com/meshintel/geopublish/internal/engine"
	"github.com/meshintel/geopublish/pkg/types"
)

// fakeCatalog implements the Catalog interface against an in-memory record
// map.
type fakeCatalog struct {
	records map[string]*types.Record
	group   *types.Group
	created []string
	updated []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: make(map[string]*types.Record)}
}

func (c *fakeCatalog) Get(ctx context.Context, id string) (*types.Record, error) {
	rec, ok := c.records[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	dup := *rec
	return &dup, nil
}

func (c *fakeCatalog) Create(ctx context.Context, rec *types.Record) error {
	c.records[rec.Name] = rec
	c.created = append(c.created, rec.Name)
	return nil
}

func (c *fakeCatalog) Update(ctx context.Context, rec *types.Record) error {
	c.records[rec.Name] = rec
	c.updated = append(c.updated, rec.Name)
	return nil
}

func (c *fakeCatalog) GetGroup(ctx context.Context, name string) (*types.Group, error) {
	if c.group == nil {
		return nil, catalog.ErrNotFound
	}
	return c.group, nil
}

const testMetadataDoc = `<?xml version="1.0"?>
<metadata>
  <idinfo>
    <descript>
      <abstract>Building outlines for the county.</abstract>
    </descript>
    <keywords>
      <theme>
        <themekey>buildings</themekey>
        <themekey>LandUseZone</themekey>
      </theme>
    </keywords>
  </idinfo>
</metadata>
`

func testPipeline(t *testing.T) (*Pipeline, *engine.MemoryEngine, *fakeCatalog) {
	t.Helper()
	eng := engine.NewMemory()
	eng.Seed("srcdata/BuildingFootprints", &engine.MemoryDataset{
		Type: engine.TypeFeatureClass,
		Fields: []engine.Field{
			{Name: "OBJECTID", Type: engine.FieldInteger},
			{Name: "Name", Type: engine.FieldString},
			{Name: "Shape", Type: engine.FieldGeometry},
		},
		Rows: []map[string]any{
			{"OBJECTID": int64(1), "Name": "north wing", "Shape": "POLYGON"},
		},
		Metadata: testMetadataDoc,
	})

	cat := newFakeCatalog()
	cat.group = &types.Group{ID: "group-1", Name: "gilpin-county"}

	root := t.TempDir()
	cfg := types.PipelineConfig{
		Catalog: types.CatalogConfig{
			DatasetPrefix: "Gilpin County",
			GroupName:     "gilpin-county",
			LicenseID:     "cc-by",
			DownloadURL:   "https://downloads.example.org/opendata",
		},
		Export: types.ExportConfig{
			OutputRoot: filepath.Join(root, "output"),
			TempRoot:   filepath.Join(root, "temp"),
		},
	}

	p := &Pipeline{
		Engine:  eng,
		Catalog: cat,
		Cfg:     cfg,
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	}
	return p, eng, cat
}

func testJob(formats ...types.Format) types.Job {
	return types.Job{
		SourceName:  "srcdata/BuildingFootprints",
		DisplayName: "BuildingFootprints",
		Formats:     formats,
		GDBVersion:  "CURRENT",
		Mode:        types.ModeAll,
		Environment: "TEST",
		LogLevel:    "info",
	}
}

func TestRunCreatesDataset(t *testing.T) {
	p, _, cat := testPipeline(t)
	job := testJob(types.FormatShapefile, types.FormatCSV, types.FormatMetadata)

	out := p.Run(context.Background(), job)
	if out.Failed() {
		t.Fatalf("run failed: %v / %+v", out.Err, out.Results)
	}
	if !out.Published {
		t.Fatal("record not published")
	}

	// Exactly the requested formats land in the output tree.
	outDir := filepath.Join(p.Cfg.Export.OutputRoot, "BuildingFootprints")
	for _, want := range []string{
		filepath.Join("shp", "BuildingFootprints.zip"),
		filepath.Join("csv", "BuildingFootprints.csv"),
		filepath.Join("metadata", "BuildingFootprints.xml"),
	} {
		if _, err := os.Stat(filepath.Join(outDir, want)); err != nil {
			t.Errorf("missing artifact %s: %v", want, err)
		}
	}
	for _, absent := range []string{"cad", "kml", "json", "gdb"} {
		if _, err := os.Stat(filepath.Join(outDir, absent)); !os.IsNotExist(err) {
			t.Errorf("unexpected output folder %s", absent)
		}
	}

	if len(cat.created) != 1 || cat.created[0] != "gilpin-county-buildingfootprints" {
		t.Fatalf("created = %v", cat.created)
	}
	rec := cat.records["gilpin-county-buildingfootprints"]
	if rec.Title != "Gilpin County: BuildingFootprints" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Version != "20260831" {
		t.Errorf("version = %q", rec.Version)
	}
	if len(rec.Groups) != 1 || rec.Groups[0] != "group-1" {
		t.Errorf("groups = %v", rec.Groups)
	}
	if len(rec.Resources) != 3 {
		t.Errorf("resources = %d, want 3", len(rec.Resources))
	}
	if rec.Notes != "Building outlines for the county." {
		t.Errorf("notes = %q", rec.Notes)
	}
	wantTags := []string{"buildings", "land-use-zone"}
	if len(rec.Tags) != 2 || rec.Tags[0] != wantTags[0] || rec.Tags[1] != wantTags[1] {
		t.Errorf("tags = %v, want %v", rec.Tags, wantTags)
	}
}

func TestRunUpdatesExistingDataset(t *testing.T) {
	p, _, cat := testPipeline(t)
	cat.records["gilpin-county-buildingfootprints"] = &types.Record{
		Name:    "gilpin-county-buildingfootprints",
		Title:   "Gilpin County: BuildingFootprints",
		Version: "20200101",
		Resources: []types.Resource{
			{Format: "shp", URL: "https://old.example.org/stale.zip"},
		},
	}

	out := p.Run(context.Background(), testJob(types.FormatShapefile))
	if out.Failed() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if len(cat.created) != 0 || len(cat.updated) != 1 {
		t.Fatalf("created=%v updated=%v, want update only", cat.created, cat.updated)
	}

	rec := cat.records["gilpin-county-buildingfootprints"]
	if rec.Version != "20260831" {
		t.Errorf("version = %q, want refreshed stamp", rec.Version)
	}
	if len(rec.Resources) != 1 {
		t.Fatalf("resources = %d, want existing entry updated in place", len(rec.Resources))
	}
	if !strings.HasPrefix(rec.Resources[0].URL, "https://downloads.example.org/") {
		t.Errorf("resource url = %q", rec.Resources[0].URL)
	}
}

func TestRunGroupNotFound(t *testing.T) {
	p, _, cat := testPipeline(t)
	cat.group = nil

	out := p.Run(context.Background(), testJob(types.FormatShapefile))
	if out.Failed() {
		t.Fatalf("a missing group should not fail the job: %v", out.Err)
	}
	rec := cat.records["gilpin-county-buildingfootprints"]
	if rec.Groups == nil || len(rec.Groups) != 0 {
		t.Errorf("groups = %#v, want empty list", rec.Groups)
	}
}

func TestRunFormatFailureStillPublishes(t *testing.T) {
	p, eng, cat := testPipeline(t)
	eng.Fail = map[string]error{"ExportCAD": os.ErrPermission}

	out := p.Run(context.Background(), testJob(types.FormatCAD, types.FormatCSV))
	if out.Failed() {
		t.Fatalf("a format failure is not a job failure: %v", out.Err)
	}
	if types.CountFailed(out.Results) != 1 {
		t.Errorf("results = %+v, want one failed format", out.Results)
	}
	if !out.Published {
		t.Error("publication should proceed past a format failure")
	}
	if len(cat.created) != 1 {
		t.Errorf("created = %v", cat.created)
	}
}

func TestRunTableSkipsMetadataMerge(t *testing.T) {
	p, eng, cat := testPipeline(t)
	eng.Seed("srcdata/TaxRoll", &engine.MemoryDataset{
		Type: engine.TypeTable,
		Fields: []engine.Field{
			{Name: "OBJECTID", Type: engine.FieldInteger},
			{Name: "Owner", Type: engine.FieldString},
		},
		Rows: []map[string]any{
			{"OBJECTID": int64(1), "Owner": "Doe"},
		},
	})
	job := testJob(types.FormatGeodatabase, types.FormatCSV, types.FormatMetadata)
	job.SourceName = "srcdata/TaxRoll"
	job.DisplayName = "TaxRoll"

	out := p.Run(context.Background(), job)
	if out.Err != nil {
		t.Fatalf("metadata skipped for a table must not fail the job: %v", out.Err)
	}
	if !out.Published {
		t.Fatal("record not published")
	}

	var meta *types.Result
	for i := range out.Results {
		if out.Results[i].Format == types.FormatMetadata {
			meta = &out.Results[i]
		}
	}
	if meta == nil || !meta.Skipped || meta.Err != nil {
		t.Fatalf("metadata result = %+v, want skipped without error", meta)
	}

	rec := cat.records["gilpin-county-taxroll"]
	if rec == nil {
		t.Fatal("record missing from catalog")
	}
	if rec.Notes != "" || len(rec.Tags) != 0 {
		t.Errorf("notes/tags should stay untouched without a metadata document: %q %v", rec.Notes, rec.Tags)
	}
}

func TestRunMetadataReadFailureFailsJob(t *testing.T) {
	p, eng, _ := testPipeline(t)
	eng.Fail = map[string]error{"ExportMetadata": os.ErrPermission}

	out := p.Run(context.Background(), testJob(types.FormatMetadata))
	if out.Err == nil {
		t.Fatal("an unreadable metadata document should fail the publish step")
	}
	if out.Published {
		t.Error("record must not be committed without its metadata")
	}
}

func TestRunExportMode(t *testing.T) {
	p, _, cat := testPipeline(t)
	job := testJob(types.FormatShapefile)
	job.Mode = types.ModeExport

	out := p.Run(context.Background(), job)
	if out.Failed() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if out.Published {
		t.Error("export mode must not touch the catalog")
	}
	if len(cat.created)+len(cat.updated) != 0 {
		t.Errorf("catalog calls in export mode: %v %v", cat.created, cat.updated)
	}
}

func TestRunNoFormats(t *testing.T) {
	p, _, cat := testPipeline(t)
	out := p.Run(context.Background(), testJob())
	if out.Failed() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if len(out.Results) != 0 || out.Published {
		t.Errorf("empty format list should do nothing: %+v", out)
	}
	if len(cat.created) != 0 {
		t.Errorf("created = %v", cat.created)
	}
}

func TestRunBatchIsolation(t *testing.T) {
	p, _, _ := testPipeline(t)
	bad := testJob(types.FormatShapefile)
	bad.SourceName = "srcdata/Missing"
	bad.DisplayName = "Missing"
	good := testJob(types.FormatShapefile)

	var buf bytes.Buffer
	result := p.RunBatch(context.Background(), []types.Job{bad, good}, &buf)

	if result.Total() != 2 || result.Failed != 1 || result.Succeeded != 1 {
		t.Fatalf("batch = %+v", result)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Outcomes[0].Err == nil {
		t.Error("first outcome should carry the describe failure")
	}
	if result.Outcomes[1].Failed() {
		t.Errorf("second job should still run: %v", result.Outcomes[1].Err)
	}

	progress := buf.String()
	if !strings.Contains(progress, "[1/2] Missing") || !strings.Contains(progress, "FAILED") {
		t.Errorf("progress output missing failure line:\n%s", progress)
	}
	if !strings.Contains(progress, "2 jobs: 1 succeeded, 1 failed") {
		t.Errorf("progress output missing summary:\n%s", progress)
	}
}

func TestRunBatchFormatFailureCountsSucceeded(t *testing.T) {
	p, eng, _ := testPipeline(t)
	eng.Fail = map[string]error{"ExportCAD": os.ErrPermission}

	var buf bytes.Buffer
	result := p.RunBatch(context.Background(), []types.Job{testJob(types.FormatCAD, types.FormatCSV)}, &buf)

	if result.Failed != 0 || result.Succeeded != 1 {
		t.Fatalf("batch = %+v, want the job counted as succeeded", result)
	}
	if result.HasFailures() {
		t.Error("a per-format error is not a job failure")
	}

	progress := buf.String()
	if !strings.Contains(progress, "1 format error") {
		t.Errorf("progress output missing format error count:\n%s", progress)
	}
	if strings.Contains(progress, "FAILED") {
		t.Errorf("progress output should not mark the job failed:\n%s", progress)
	}
}
