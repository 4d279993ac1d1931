package migrator

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/drivetools/drive-migrate/internal/checksum"
	"github.com/drivetools/drive-migrate/pkg/driveclient"
)

// exportFormat maps a Google-native document type to the interchange format
// it is exported as when server-side copy is not available.
type exportFormat struct {
	MimeType  string
	Extension string
}

var exportFormats = map[string]exportFormat{
	"application/vnd.google-apps.document": {
		MimeType:  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Extension: ".docx",
	},
	"application/vnd.google-apps.spreadsheet": {
		MimeType:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension: ".xlsx",
	},
	"application/vnd.google-apps.presentation": {
		MimeType:  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		Extension: ".pptx",
	},
}

// duplicate recreates an item by downloading its content and uploading it
// as a new file. Editable document types are exported to their interchange
// format; everything else transfers unchanged. Content is held fully in
// memory, which is fine at manifest-driven scale.
func (m *Migrator) duplicate(ctx context.Context, meta *driveclient.ItemMetadata) (driveclient.ItemRef, int64, error) {
	var (
		data       []byte
		err        error
		uploadMime string
		newName    string
	)

	if format, ok := exportFormats[meta.MimeType]; ok {
		data, err = m.client.Export(ctx, meta.ID, format.MimeType)
		uploadMime = format.MimeType
		newName = baseName(meta.Name) + format.Extension
	} else {
		data, err = m.client.Download(ctx, meta.ID)
		uploadMime = meta.MimeType
		newName = meta.Name
		if err == nil {
			if verr := checksum.Verify(data, meta.MD5Checksum); verr != nil {
				return "", 0, fmt.Errorf("downloaded content for %s: %w", meta.ID, verr)
			}
		}
	}
	if err != nil {
		return "", 0, err
	}

	id, err := m.client.Upload(ctx, newName, uploadMime, data)
	if err != nil {
		return "", 0, err
	}
	return id, int64(len(data)), nil
}

func baseName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
