// Package manifest reads the "name,url" table that drives a migration run
// and extracts Drive item identifiers from the listed URLs.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one data row of the manifest. The display name is informational
// only; the URL is what identifies the item to migrate.
type Row struct {
	Name string
	URL  string
}

// Load reads a manifest file. A missing file is an error; the caller
// reports it and ends the run without migrating anything.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads manifest rows from r. The first row is a header and is
// discarded; rows with fewer than two columns are skipped.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []Row
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(record) < 2 {
			continue
		}
		rows = append(rows, Row{
			Name: strings.TrimSpace(record[0]),
			URL:  strings.TrimSpace(record[1]),
		})
	}
}

const (
	fileURLMarker   = "drive.google.com/file/d/"
	folderURLMarker = "drive.google.com/drive/folders/"
)

// ExtractItemID recognizes the two supported URL shapes:
//
//	.../file/d/<id>/...
//	.../folders/<id>[?...]
//
// and returns the embedded identifier. ok is false for any other shape.
func ExtractItemID(rawURL string) (id string, ok bool) {
	if _, rest, found := strings.Cut(rawURL, fileURLMarker); found {
		id, _, _ = strings.Cut(rest, "/")
		id, _, _ = strings.Cut(id, "?")
		return id, id != ""
	}
	if _, rest, found := strings.Cut(rawURL, folderURLMarker); found {
		id, _, _ = strings.Cut(rest, "?")
		id, _, _ = strings.Cut(id, "/")
		return id, id != ""
	}
	return "", false
}
