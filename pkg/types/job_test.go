// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRunMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RunMode
		wantErr bool
	}{
		{"empty defaults to all", "", ModeAll, false},
		{"export", "EXPORT", ModeExport, false},
		{"publish lowercase", "publish", ModePublish, false},
		{"all with whitespace", " all ", ModeAll, false},
		{"unknown", "SYNC", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRunMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRunMode(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRunMode(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRunMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJobFileName(t *testing.T) {
	tests := []struct {
		display string
		want    string
	}{
		{"BuildingFootprints", "BuildingFootprints"},
		{"Parcel-Ownership", "Parcel_Ownership"},
		{"a-b-c", "a_b_c"},
	}
	for _, tt := range tests {
		job := Job{DisplayName: tt.display}
		if got := job.FileName(); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.display, got, tt.want)
		}
	}
}

func TestJobSourcePath(t *testing.T) {
	job := Job{SourceWorkspace: "data/county.gdb", SourceName: "Roads"}
	want := filepath.Join("data/county.gdb", "Roads")
	if got := job.SourcePath(); got != want {
		t.Errorf("SourcePath() = %q, want %q", got, want)
	}

	bare := Job{SourceName: "standalone.shp"}
	if got := bare.SourcePath(); got != "standalone.shp" {
		t.Errorf("SourcePath() without workspace = %q", got)
	}
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	content := `jobs:
  - source_workspace: data/county.gdb
    source_name: BuildingFootprints
    display_name: BuildingFootprints
    formats: shp,csv,metadata
    exclude_fields:
      - GlobalID
    mode: ALL
    environment: PROD
  - source_name: standalone.shp
    display_name: Roads
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	jobs, err := LoadJobs(path)
	if err != nil {
		t.Fatalf("LoadJobs error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	first := jobs[0]
	if first.DisplayName != "BuildingFootprints" {
		t.Errorf("display name = %q", first.DisplayName)
	}
	if len(first.Formats) != 3 || first.Formats[0] != FormatShapefile || first.Formats[1] != FormatCSV || first.Formats[2] != FormatMetadata {
		t.Errorf("formats = %v", first.Formats)
	}
	if first.Environment != "PROD" {
		t.Errorf("environment = %q", first.Environment)
	}
	if len(first.ExcludeFields) != 1 || first.ExcludeFields[0] != "GlobalID" {
		t.Errorf("exclude fields = %v", first.ExcludeFields)
	}

	// Second job exercises every default.
	second := jobs[1]
	if len(second.Formats) != len(AllFormats) {
		t.Errorf("default formats = %v, want all %d", second.Formats, len(AllFormats))
	}
	if second.Mode != ModeAll {
		t.Errorf("default mode = %v", second.Mode)
	}
	if second.GDBVersion != "CURRENT" {
		t.Errorf("default gdb version = %q", second.GDBVersion)
	}
	if second.Environment != "TEST" {
		t.Errorf("default environment = %q", second.Environment)
	}
	if second.LogLevel != "info" {
		t.Errorf("default log level = %q", second.LogLevel)
	}
}

func TestLoadJobsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			"missing source_name",
			"jobs:\n  - display_name: Roads\n",
			"source_name is required",
		},
		{
			"missing display_name",
			"jobs:\n  - source_name: Roads\n",
			"display_name is required",
		},
		{
			"bad format",
			"jobs:\n  - source_name: Roads\n    display_name: Roads\n    formats: tiff\n",
			"unknown export format",
		},
		{
			"bad mode",
			"jobs:\n  - source_name: Roads\n    display_name: Roads\n    mode: SYNC\n",
			"unknown run mode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "jobs.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadJobs(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}
