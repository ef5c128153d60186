// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Resource kinds as stored on a catalog resource entry.
const (
	ResourceTypeFile     = "file"
	ResourceTypeMetadata = "metadata"
)

// Resource is one download-link entry inside a catalog dataset record.
// Field names follow the catalog's REST wire format.
type Resource struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	MIMEType    string `json:"mimetype"`
	Format      string `json:"format"`
	Type        string `json:"resource_type"`
	Size        *int64 `json:"size,omitempty"`
}

// Record mirrors a remote catalog dataset entry. It is mutated in place by
// the metadata reader and the resource reconciler, then committed in a
// single create-or-update call.
type Record struct {
	// Name is the stable dataset identifier (slug) on the catalog.
	Name            string     `json:"name"`
	Title           string     `json:"title"`
	LicenseID       string     `json:"license_id"`
	Version         string     `json:"version"`
	Maintainer      string     `json:"maintainer"`
	MaintainerEmail string     `json:"maintainer_email"`
	Author          string     `json:"author"`
	Notes           string     `json:"notes,omitempty"`
	Tags            []string   `json:"tags"`
	Groups          []string   `json:"groups"`
	Resources       []Resource `json:"resources"`
}

// ResourceByFormat returns the resource whose format tag matches format
// (case-insensitive, whitespace-trimmed), or nil when absent.
func (r *Record) ResourceByFormat(format string) *Resource {
	want := strings.ToUpper(strings.TrimSpace(format))
	for i := range r.Resources {
		if strings.ToUpper(strings.TrimSpace(r.Resources[i].Format)) == want {
			return &r.Resources[i]
		}
	}
	return nil
}

// Group is a catalog group a dataset can be attached to.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}
