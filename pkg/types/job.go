// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the geopublish pipeline:
// dataset jobs, export formats, artifacts, catalog entities and stage
// configuration.
package types

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// RunMode selects which half of the pipeline a job runs.
type RunMode string

const (
	// ModeExport produces output artifacts only.
	ModeExport RunMode = "EXPORT"
	// ModePublish reconciles and commits the catalog record only.
	ModePublish RunMode = "PUBLISH"
	// ModeAll exports first, then publishes.
	ModeAll RunMode = "ALL"
)

// ParseRunMode parses a run mode string (case-insensitive). An empty string
// defaults to ModeAll.
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return ModeAll, nil
	case ModeExport:
		return ModeExport, nil
	case ModePublish:
		return ModePublish, nil
	case ModeAll:
		return ModeAll, nil
	}
	return "", fmt.Errorf("unknown run mode %q (want EXPORT, PUBLISH or ALL)", s)
}

// Job identifies one dataset publication unit of work. A Job is immutable
// once constructed: it is parsed from the jobs file and consumed once per run.
type Job struct {
	// SourceWorkspace is the workspace (enterprise connection or file
	// geodatabase) containing the source object. May be empty when
	// SourceName is already a full path.
	SourceWorkspace string

	// SourceName is the feature class or table name inside the workspace.
	SourceName string

	// DisplayName is the public dataset name (e.g. "BuildingFootprints").
	DisplayName string

	// ExcludeFields lists columns dropped from the staged copy before export.
	ExcludeFields []string

	// Formats is the ordered, deduplicated set of requested export formats.
	Formats []Format

	// GDBVersion is the compatibility token for the file geodatabase
	// container (e.g. "9.3" or "CURRENT").
	GDBVersion string

	// Mode selects export-only, publish-only or both.
	Mode RunMode

	// Environment tags the run (e.g. "TEST", "PROD").
	Environment string

	// LogLevel sets the per-job log verbosity.
	LogLevel string
}

// FileName returns the file-system and URL safe dataset name: the display
// name with dashes replaced by underscores.
func (j Job) FileName() string {
	return strings.ReplaceAll(j.DisplayName, "-", "_")
}

// SourcePath returns the full path to the source object.
func (j Job) SourcePath() string {
	if j.SourceWorkspace == "" {
		return j.SourceName
	}
	return filepath.Join(j.SourceWorkspace, j.SourceName)
}

// HasFormat reports whether f is in the requested format set.
func (j Job) HasFormat(f Format) bool {
	for _, have := range j.Formats {
		if have == f {
			return true
		}
	}
	return false
}

// jobEntry is the on-disk shape of one job in the jobs file.
type jobEntry struct {
	SourceWorkspace string   `yaml:"source_workspace"`
	SourceName      string   `yaml:"source_name"`
	DisplayName     string   `yaml:"display_name"`
	ExcludeFields   []string `yaml:"exclude_fields"`
	Formats         string   `yaml:"formats"`
	GDBVersion      string   `yaml:"gdb_version"`
	Mode            string   `yaml:"mode"`
	Environment     string   `yaml:"environment"`
	LogLevel        string   `yaml:"log_level"`
}

type jobsFile struct {
	Jobs []jobEntry `yaml:"jobs"`
}

// LoadJobs reads the ordered job list from a YAML jobs file. Missing
// per-job settings get defaults: every known format, gdb version CURRENT,
// mode ALL, environment TEST, log level info.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jobs file: %w", err)
	}

	var file jobsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing jobs file %s: %w", path, err)
	}

	jobs := make([]Job, 0, len(file.Jobs))
	for i, entry := range file.Jobs {
		job, err := entry.toJob()
		if err != nil {
			return nil, fmt.Errorf("jobs file %s, job %d: %w", path, i+1, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (e jobEntry) toJob() (Job, error) {
	if e.SourceName == "" {
		return Job{}, fmt.Errorf("source_name is required")
	}
	if e.DisplayName == "" {
		return Job{}, fmt.Errorf("display_name is required")
	}

	formatSpec := e.Formats
	if formatSpec == "" {
		// No format list means publish everything.
		parts := make([]string, len(AllFormats))
		for i, f := range AllFormats {
			parts[i] = string(f)
		}
		formatSpec = strings.Join(parts, ",")
	}
	formats, err := ParseFormats(formatSpec)
	if err != nil {
		return Job{}, err
	}

	mode, err := ParseRunMode(e.Mode)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		SourceWorkspace: e.SourceWorkspace,
		SourceName:      e.SourceName,
		DisplayName:     e.DisplayName,
		ExcludeFields:   e.ExcludeFields,
		Formats:         formats,
		GDBVersion:      e.GDBVersion,
		Mode:            mode,
		Environment:     e.Environment,
		LogLevel:        e.LogLevel,
	}
	if job.GDBVersion == "" {
		job.GDBVersion = "CURRENT"
	}
	if job.Environment == "" {
		job.Environment = "TEST"
	}
	if job.LogLevel == "" {
		job.LogLevel = "info"
	}
	return job, nil
}
