// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Artifact is one produced output file in the output tree. At most one
// artifact exists per format within a single publish run.
type Artifact struct {
	// Format is the export format that produced the file.
	Format Format

	// Path is the absolute path of the published file.
	Path string

	// Size is the file size in bytes, nil when unavailable.
	Size *int64

	// MIMEType is the published MIME type.
	MIMEType string

	// Name is a short human-readable label derived from the display name.
	Name string

	// Description is a longer human-readable label.
	Description string
}

// Result is the outcome of one format's export attempt. Exporters return
// explicit results instead of raising across the pipeline, so a single
// format failure never aborts the remaining formats.
type Result struct {
	Format   Format
	Artifact *Artifact
	Err      error

	// Skipped is set when the format was not attempted, with SkipReason
	// naming why (e.g. not applicable to non-spatial tables).
	Skipped    bool
	SkipReason string
}

// OK reports whether the format produced a published artifact.
func (r Result) OK() bool {
	return r.Err == nil && !r.Skipped && r.Artifact != nil
}

// CountFailed returns the number of failed results in rs.
func CountFailed(rs []Result) int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}
