// Package driveclient provides the tree operations the migration engine
// needs from the remote store: metadata, listing, folder creation, copy,
// relocation, and raw content transfer.
package driveclient

import (
	"context"
	"errors"
	"fmt"
)

// FolderMimeType is the MIME type Drive assigns to folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// ItemRef is an opaque identifier for a remote file or folder.
type ItemRef string

// Root refers to the top of the user's tree.
const Root ItemRef = "root"

// Kind distinguishes files from folders.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// ItemMetadata is a read-only snapshot of a remote item. It is fetched on
// demand and never cached; two fetches of the same ItemRef may differ.
type ItemMetadata struct {
	ID          ItemRef
	Name        string
	MimeType    string
	Size        int64
	MD5Checksum string
	Owners      []string
	Parents     []ItemRef
}

// Kind derives the item kind from its MIME type.
func (m *ItemMetadata) Kind() Kind {
	if m.MimeType == FolderMimeType {
		return KindFolder
	}
	return KindFile
}

// ErrNotFound reports that the remote item does not exist (or is not
// visible to the authenticated user).
var ErrNotFound = errors.New("item not found")

// CopyError reports that the provider rejected a server-side copy. This is
// an expected outcome for some item kinds; callers fall back to
// download-and-reupload.
type CopyError struct {
	ID  ItemRef
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s: %v", e.ID, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Client is the narrow contract the migration engine has with the remote
// store. All implementations retry transient failures internally.
type Client interface {
	// GetMetadata fetches a fresh metadata snapshot for id.
	GetMetadata(ctx context.Context, id ItemRef) (*ItemMetadata, error)

	// ListChildren returns the full, pagination-followed child set of folder.
	ListChildren(ctx context.Context, folder ItemRef) ([]*ItemMetadata, error)

	// FindFolder looks up a folder by exact name under parent. Returns
	// ErrNotFound when no such folder exists.
	FindFolder(ctx context.Context, name string, parent ItemRef) (ItemRef, error)

	// CreateFolder creates a folder named name under parent.
	CreateFolder(ctx context.Context, name string, parent ItemRef) (ItemRef, error)

	// CopyItem duplicates id server-side under the item's current parent.
	// Provider rejections are returned as *CopyError.
	CopyItem(ctx context.Context, id ItemRef, newName string) (ItemRef, error)

	// Relocate swaps the item's current parent set for {newParent}.
	Relocate(ctx context.Context, id ItemRef, newParent ItemRef) error

	// Download fetches the item's raw bytes.
	Download(ctx context.Context, id ItemRef) ([]byte, error)

	// Export converts an editable document to mimeType and fetches the result.
	Export(ctx context.Context, id ItemRef, mimeType string) ([]byte, error)

	// Upload creates a new file with the given content.
	Upload(ctx context.Context, name, mimeType string, data []byte) (ItemRef, error)
}
