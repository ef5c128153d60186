// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata parses published FGDC metadata documents into the
// summary fields the catalog record carries: the abstract text and the
// theme keywords, normalized into tag slugs.
package metadata

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/pkg/types"
)

// Summary is the normalized result of one metadata document. It lives only
// within a single publish call.
type Summary struct {
	// Abstract is the dataset abstract, empty when the document has none.
	Abstract string

	// Keywords are the theme keywords, slugified.
	Keywords []string
}

// Parse scans a metadata document for the first abstract element and every
// theme-keyword element. Malformed XML is a hard error.
func Parse(r io.Reader) (Summary, error) {
	var sum Summary
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("parsing metadata document: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "abstract":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return Summary{}, fmt.Errorf("parsing abstract: %w", err)
			}
			if sum.Abstract == "" {
				sum.Abstract = strings.TrimSpace(text)
			}
		case "themekey":
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return Summary{}, fmt.Errorf("parsing theme keyword: %w", err)
			}
			sum.Keywords = append(sum.Keywords, Slugify(text))
		}
	}
	return sum, nil
}

// ParseFile parses the metadata document at path.
func ParseFile(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening metadata document: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply merges a summary into a catalog record. A missing abstract is a
// warning and leaves the record's notes unchanged. Keywords replace the
// record's tags; duplicates are not collapsed, mirroring the catalog's own
// semantics.
func Apply(rec *types.Record, sum Summary, datasetName string, log zerolog.Logger) {
	if sum.Abstract != "" {
		rec.Notes = sum.Abstract
	} else {
		log.Warn().Str("dataset", datasetName).Msg("no abstract found in metadata")
	}
	rec.Tags = sum.Keywords
	for _, kw := range sum.Keywords {
		log.Debug().Str("keyword", kw).Msg("keyword found in metadata")
	}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	hyphenRunRe  = regexp.MustCompile(`-+`)
)

// Slugify turns a keyword into a tag slug: whitespace collapses to hyphens,
// camel-case word boundaries become hyphens, everything is lower-cased, and
// duplicate hyphens collapse.
func Slugify(in string) string {
	s := whitespaceRe.ReplaceAllString(in, "-")

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			startsWord := i+1 < len(runes) && !unicode.IsUpper(runes[i+1])
			if prevLower || startsWord {
				b.WriteRune('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	slug := hyphenRunRe.ReplaceAllString(b.String(), "-")
	return strings.Trim(slug, "-")
}
