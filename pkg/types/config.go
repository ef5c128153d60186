// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "geopublish/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig holds settings for the remote open-data catalog.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIURL is the base URL of the catalog REST API
	// (e.g. "https://data.example.org/api/2").
	APIURL string `json:"api_url" yaml:"api_url"`

	// APIKey authenticates create and update calls. Usually loaded from
	// .secrets/catalog-api-key rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DatasetPrefix is the organization prefix for dataset ids and titles
	// (e.g. "Gilpin County").
	DatasetPrefix string `json:"dataset_prefix" yaml:"dataset_prefix"`

	// GroupName is the catalog group new datasets are attached to.
	GroupName string `json:"group_name" yaml:"group_name"`

	// LicenseID is the catalog license id assigned to new datasets.
	LicenseID string `json:"license_id" yaml:"license_id"`

	// DownloadURL is the base URL the published artifacts are served from.
	DownloadURL string `json:"download_url" yaml:"download_url"`

	// Maintainer fields stamped onto new dataset records.
	Maintainer      string `json:"maintainer" yaml:"maintainer"`
	MaintainerEmail string `json:"maintainer_email" yaml:"maintainer_email"`
	Author          string `json:"author" yaml:"author"`
}

// DatasetID returns the catalog identifier (slug) for a display name:
// the prefix with spaces replaced by dashes, a dash, and the display name,
// all lower-cased.
func (c CatalogConfig) DatasetID(displayName string) string {
	prefix := strings.ReplaceAll(c.DatasetPrefix, " ", "-")
	return strings.ToLower(prefix + "-" + displayName)
}

// DatasetTitle returns the catalog title for a display name.
func (c CatalogConfig) DatasetTitle(displayName string) string {
	return c.DatasetPrefix + ": " + displayName
}

// ExportConfig holds settings for the file export stages.
type ExportConfig struct {
	// OutputRoot is the root of the published output tree.
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// TempRoot is the root of the per-dataset temp workspaces.
	TempRoot string `json:"temp_root" yaml:"temp_root"`

	// MetadataStylesheet is the XSLT applied to exported metadata before
	// publication. When the file is absent the raw export is published.
	MetadataStylesheet string `json:"metadata_stylesheet" yaml:"metadata_stylesheet"`

	// NullSentinel is the literal placeholder scrubbed from string fields
	// before KML and GeoJSON conversion (default "<Null>").
	NullSentinel string `json:"null_sentinel" yaml:"null_sentinel"`

	// OutputSRID is the projected coordinate system of the staged copy
	// (e.g. 2231 for Colorado State Plane North).
	OutputSRID int `json:"output_srid" yaml:"output_srid"`

	// WGS84Transformation is the named datum transformation used when
	// reprojecting to geographic WGS84 for KML and GeoJSON.
	WGS84Transformation string `json:"wgs84_transformation" yaml:"wgs84_transformation"`
}

// RunLogConfig holds settings for the run history database.
type RunLogConfig struct {
	// Path is the SQLite database file. Empty disables run logging.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Export  ExportConfig  `json:"export" yaml:"export"`
	RunLog  RunLogConfig  `json:"run_log" yaml:"run_log"`

	// JobsFile is the path of the YAML job list.
	JobsFile string `json:"jobs_file" yaml:"jobs_file"`
}
