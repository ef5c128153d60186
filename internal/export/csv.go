// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/meshintel/geopublish/pkg/types"
)

// geometryColumns are engine-managed columns excluded from CSV output.
var geometryColumns = []string{"Shape", "Shape_Length", "Shape_Area"}

// CSVExporter writes the staged dataset's attribute table as CSV: a header
// row plus one row per record, with all non-numeric values quoted. A failed
// record is counted and reported but does not stop the scan; if any record
// failed, the whole artifact is discarded instead of published.
type CSVExporter struct{}

func (CSVExporter) Format() types.Format { return types.FormatCSV }

func (CSVExporter) Export(rc *RunContext) (*types.Artifact, error) {
	folder, err := rc.Store.TempFormatFolder(types.FormatCSV, true)
	if err != nil {
		return nil, err
	}

	fields, err := rc.Engine.ListFields(rc.Staging)
	if err != nil {
		return nil, err
	}
	var names []string
	var numeric []bool
	for _, f := range fields {
		if isGeometryColumn(f.Name) {
			continue
		}
		names = append(names, f.Name)
		numeric = append(numeric, f.Type.Numeric())
	}

	filename := rc.Name + ".csv"
	destination := filepath.Join(folder, filename)
	rc.Log.Debug().Str("from", rc.Staging).Str("to", destination).Msg("exporting to csv")

	f, err := os.Create(destination)
	if err != nil {
		return nil, fmt.Errorf("creating csv: %w", err)
	}
	w := bufio.NewWriter(f)

	header := make([]string, len(names))
	for i, n := range names {
		header[i] = quote(n)
	}
	fmt.Fprintf(w, "%s\r\n", strings.Join(header, ","))

	cursor, err := rc.Engine.SearchRows(rc.Staging, names)
	if err != nil {
		f.Close()
		return nil, err
	}
	defer cursor.Close()

	errorCount := 0
	var errorReport strings.Builder
	for {
		vals, ok := cursor.Next()
		if !ok {
			break
		}
		line, err := csvLine(vals, numeric)
		if err != nil {
			errorCount++
			fmt.Fprintf(&errorReport, "\n%v", vals)
			rc.Log.Debug().Err(err).Msg("error writing record to CSV")
			continue
		}
		fmt.Fprintf(w, "%s\r\n", line)
	}
	if err := cursor.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing csv: %w", err)
	}

	// All-or-nothing at the artifact level: any failed record discards the
	// CSV rather than publishing a partial table.
	if errorCount > 0 {
		return nil, fmt.Errorf("%d record(s) prevented the CSV from publishing correctly, check for invalid characters:%s",
			errorCount, errorReport.String())
	}

	published, err := rc.Store.Publish(folder, filename, types.FormatCSV)
	if err != nil {
		return nil, err
	}
	return rc.artifact(types.FormatCSV, published), nil
}

func isGeometryColumn(name string) bool {
	for _, g := range geometryColumns {
		if name == g {
			return true
		}
	}
	return false
}

// csvLine formats one record. Numeric columns are written bare; everything
// else is quoted.
func csvLine(vals []any, numeric []bool) (string, error) {
	parts := make([]string, len(vals))
	for i, v := range vals {
		s, err := csvValue(v, numeric[i])
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ","), nil
}

func csvValue(v any, numeric bool) (string, error) {
	switch x := v.(type) {
	case nil:
		if numeric {
			return "", nil
		}
		return `""`, nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case string:
		return quote(x), nil
	case bool:
		return quote(strconv.FormatBool(x)), nil
	case time.Time:
		return quote(x.Format("2006-01-02 15:04:05")), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
