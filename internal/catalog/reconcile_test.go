// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/pkg/types"
)

func TestDownloadURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		file   string
		format types.Format
		want   string
	}{
		{
			"shapefile zip",
			"https://downloads.example.org/opendata",
			"Roads", types.FormatShapefile,
			"https://downloads.example.org/opendata/Roads/shp/Roads.zip",
		},
		{
			"cad subfolder differs from tag",
			"https://downloads.example.org/opendata",
			"Roads", types.FormatCAD,
			"https://downloads.example.org/opendata/Roads/cad/Roads.dwg",
		},
		{
			"trailing slash trimmed",
			"https://downloads.example.org/opendata/",
			"Roads", types.FormatCSV,
			"https://downloads.example.org/opendata/Roads/csv/Roads.csv",
		},
		{
			"metadata xml",
			"https://downloads.example.org/opendata",
			"Building_Footprints", types.FormatMetadata,
			"https://downloads.example.org/opendata/Building_Footprints/metadata/Building_Footprints.xml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DownloadURL(tt.base, tt.file, tt.format); got != tt.want {
				t.Errorf("DownloadURL = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeSizer resolves artifact paths without a real output tree; sizes holds
// the published files that "exist".
type fakeSizer struct {
	sizes map[string]int64
}

func (s fakeSizer) OutputPath(f types.Format, filename string) string {
	return filepath.Join("output", f.Subfolder(), filename)
}

func (s fakeSizer) FileSize(path string) *int64 {
	if size, ok := s.sizes[path]; ok {
		return &size
	}
	return nil
}

func reconcileJob() types.Job {
	return types.Job{
		DisplayName: "BuildingFootprints",
		Formats:     []types.Format{types.FormatShapefile, types.FormatCSV, types.FormatMetadata},
	}
}

func TestReconcileResources(t *testing.T) {
	cfg := types.CatalogConfig{DownloadURL: "https://downloads.example.org/opendata"}
	sizer := fakeSizer{sizes: map[string]int64{
		filepath.Join("output", "shp", "BuildingFootprints.zip"): 1024,
	}}
	rec := &types.Record{}

	ReconcileResources(rec, reconcileJob(), "Gilpin County: BuildingFootprints", cfg, sizer, zerolog.Nop())

	if len(rec.Resources) != 3 {
		t.Fatalf("got %d resources, want 3", len(rec.Resources))
	}

	shp := rec.ResourceByFormat("shp")
	if shp == nil {
		t.Fatal("no shp resource")
	}
	if shp.Name != "BuildingFootprints - SHP" {
		t.Errorf("shp name = %q", shp.Name)
	}
	if shp.Description != "BuildingFootprints - Shapefile" {
		t.Errorf("shp description = %q", shp.Description)
	}
	if shp.URL != "https://downloads.example.org/opendata/BuildingFootprints/shp/BuildingFootprints.zip" {
		t.Errorf("shp url = %q", shp.URL)
	}
	if shp.Type != types.ResourceTypeFile {
		t.Errorf("shp resource type = %q", shp.Type)
	}
	if shp.Size == nil || *shp.Size != 1024 {
		t.Errorf("shp size = %v, want 1024", shp.Size)
	}

	// CSV names come from the record title, and its file was not published.
	csv := rec.ResourceByFormat("csv")
	if csv == nil {
		t.Fatal("no csv resource")
	}
	if csv.Name != "Gilpin County: BuildingFootprints - CSV" {
		t.Errorf("csv name = %q", csv.Name)
	}
	if csv.Size != nil {
		t.Errorf("csv size = %v, want nil for unreadable file", csv.Size)
	}

	// The metadata resource is stored under the xml format tag.
	meta := rec.ResourceByFormat("xml")
	if meta == nil {
		t.Fatal("no metadata resource")
	}
	if meta.Type != types.ResourceTypeMetadata {
		t.Errorf("metadata resource type = %q", meta.Type)
	}
	if meta.MIMEType != "application/xml" {
		t.Errorf("metadata mime = %q", meta.MIMEType)
	}
}

func TestReconcileResourcesIdempotent(t *testing.T) {
	cfg := types.CatalogConfig{DownloadURL: "https://downloads.example.org/opendata"}
	sizer := fakeSizer{}
	rec := &types.Record{}
	job := reconcileJob()
	title := "Gilpin County: BuildingFootprints"

	ReconcileResources(rec, job, title, cfg, sizer, zerolog.Nop())
	first := append([]types.Resource(nil), rec.Resources...)

	ReconcileResources(rec, job, title, cfg, sizer, zerolog.Nop())
	if len(rec.Resources) != len(first) {
		t.Fatalf("second reconcile grew resources: %d -> %d", len(first), len(rec.Resources))
	}
	for i := range first {
		if rec.Resources[i] != first[i] {
			t.Errorf("resource %d changed on second reconcile: %+v -> %+v", i, first[i], rec.Resources[i])
		}
	}
}

func TestReconcileResourcesUpdatesExisting(t *testing.T) {
	cfg := types.CatalogConfig{DownloadURL: "https://new.example.org"}
	rec := &types.Record{Resources: []types.Resource{
		{Format: "shp", URL: "https://old.example.org/stale.zip", Name: "stale"},
	}}
	job := types.Job{DisplayName: "Roads", Formats: []types.Format{types.FormatShapefile}}

	ReconcileResources(rec, job, "Gilpin County: Roads", cfg, fakeSizer{}, zerolog.Nop())

	if len(rec.Resources) != 1 {
		t.Fatalf("got %d resources, want the existing one updated in place", len(rec.Resources))
	}
	if rec.Resources[0].URL != "https://new.example.org/Roads/shp/Roads.zip" {
		t.Errorf("url = %q", rec.Resources[0].URL)
	}
	if rec.Resources[0].Name != "Roads - SHP" {
		t.Errorf("name = %q", rec.Resources[0].Name)
	}
}

type fakeGroups struct {
	group *types.Group
	err   error
}

func (f fakeGroups) GetGroup(ctx context.Context, name string) (*types.Group, error) {
	return f.group, f.err
}

func TestVersionStamp(t *testing.T) {
	ts := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	if got := VersionStamp(ts); got != "20260831" {
		t.Errorf("VersionStamp = %q", got)
	}
}

func TestNewRecord(t *testing.T) {
	cfg := types.CatalogConfig{
		LicenseID:       "cc-by",
		Maintainer:      "GIS Team",
		MaintainerEmail: "gis@example.org",
		Author:          "GIS Team",
	}
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	rec := NewRecord("gilpin-county-roads", "Gilpin County: Roads", cfg, now)

	if rec.Name != "gilpin-county-roads" || rec.Title != "Gilpin County: Roads" {
		t.Errorf("identity = %q / %q", rec.Name, rec.Title)
	}
	if rec.Version != "20260831" {
		t.Errorf("version = %q", rec.Version)
	}
	if rec.LicenseID != "cc-by" || rec.Maintainer != "GIS Team" {
		t.Errorf("license/maintainer = %q / %q", rec.LicenseID, rec.Maintainer)
	}
}

func TestAttachGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rec := &types.Record{Name: "d"}
		groups := fakeGroups{group: &types.Group{ID: "g-1", Name: "gilpin-county"}}
		if err := AttachGroup(ctx, groups, rec, "gilpin-county", zerolog.Nop()); err != nil {
			t.Fatalf("AttachGroup error: %v", err)
		}
		if len(rec.Groups) != 1 || rec.Groups[0] != "g-1" {
			t.Errorf("groups = %v", rec.Groups)
		}
	})

	t.Run("not found is tolerated", func(t *testing.T) {
		rec := &types.Record{Name: "d"}
		if err := AttachGroup(ctx, fakeGroups{err: ErrNotFound}, rec, "missing", zerolog.Nop()); err != nil {
			t.Fatalf("AttachGroup error: %v", err)
		}
		if rec.Groups == nil || len(rec.Groups) != 0 {
			t.Errorf("groups = %#v, want empty non-nil list", rec.Groups)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		rec := &types.Record{Name: "d"}
		if err := AttachGroup(ctx, fakeGroups{}, rec, "", zerolog.Nop()); err != nil {
			t.Fatalf("AttachGroup error: %v", err)
		}
		if rec.Groups == nil || len(rec.Groups) != 0 {
			t.Errorf("groups = %#v, want empty non-nil list", rec.Groups)
		}
	})

	t.Run("other errors propagate", func(t *testing.T) {
		rec := &types.Record{Name: "d"}
		if err := AttachGroup(ctx, fakeGroups{err: errors.New("boom")}, rec, "g", zerolog.Nop()); err == nil {
			t.Fatal("expected error")
		}
	})
}
