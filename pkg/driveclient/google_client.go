package driveclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/drivetools/drive-migrate/pkg/retry"
)

const (
	metadataFields = "id, name, mimeType, size, md5Checksum, owners, parents"
	listFields     = "nextPageToken, files(id, name, mimeType, size, md5Checksum, owners, parents)"
	listPageSize   = 1000
)

// GoogleClient implements Client against the Drive v3 API. Every call is
// routed through the retry policy and advertises shared-drive support.
type GoogleClient struct {
	svc   *drive.Service
	retry *retry.Policy
}

func NewGoogleClient(svc *drive.Service, policy *retry.Policy) *GoogleClient {
	return &GoogleClient{svc: svc, retry: policy}
}

func (c *GoogleClient) GetMetadata(ctx context.Context, id ItemRef) (*ItemMetadata, error) {
	var f *drive.File
	err := c.retry.Do(ctx, "files.get", func() error {
		var e error
		f, e = c.svc.Files.Get(string(id)).
			Fields(metadataFields).
			SupportsAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, mapErr(fmt.Sprintf("get metadata for %s", id), err)
	}
	return toMetadata(f), nil
}

func (c *GoogleClient) ListChildren(ctx context.Context, folder ItemRef) ([]*ItemMetadata, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(string(folder)))

	var children []*ItemMetadata
	pageToken := ""
	for {
		var page *drive.FileList
		err := c.retry.Do(ctx, "files.list", func() error {
			call := c.svc.Files.List().
				Q(query).
				Fields(listFields).
				PageSize(listPageSize).
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var e error
			page, e = call.Do()
			return e
		})
		if err != nil {
			return nil, mapErr(fmt.Sprintf("list children of %s", folder), err)
		}

		for _, f := range page.Files {
			children = append(children, toMetadata(f))
		}
		if page.NextPageToken == "" {
			return children, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *GoogleClient) FindFolder(ctx context.Context, name string, parent ItemRef) (ItemRef, error) {
	query := fmt.Sprintf(
		"mimeType = '%s' and name = '%s' and '%s' in parents and trashed = false",
		FolderMimeType, escapeQuery(name), escapeQuery(string(parent)),
	)

	var page *drive.FileList
	err := c.retry.Do(ctx, "files.list", func() error {
		var e error
		page, e = c.svc.Files.List().
			Q(query).
			Fields("files(id, name)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return "", mapErr(fmt.Sprintf("find folder %q", name), err)
	}
	if len(page.Files) == 0 {
		return "", fmt.Errorf("find folder %q: %w", name, ErrNotFound)
	}
	return ItemRef(page.Files[0].Id), nil
}

func (c *GoogleClient) CreateFolder(ctx context.Context, name string, parent ItemRef) (ItemRef, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
	}
	if parent != "" {
		meta.Parents = []string{string(parent)}
	}

	var created *drive.File
	err := c.retry.Do(ctx, "files.create", func() error {
		var e error
		created, e = c.svc.Files.Create(meta).
			Fields("id").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return "", mapErr(fmt.Sprintf("create folder %q", name), err)
	}
	return ItemRef(created.Id), nil
}

func (c *GoogleClient) CopyItem(ctx context.Context, id ItemRef, newName string) (ItemRef, error) {
	meta := &drive.File{Name: newName}

	var copied *drive.File
	err := c.retry.Do(ctx, "files.copy", func() error {
		var e error
		copied, e = c.svc.Files.Copy(string(id), meta).
			Fields("id, name, parents").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		// Copy is not supported for every item kind; let the caller decide
		// whether to fall back.
		return "", &CopyError{ID: id, Err: mapErr("copy", err)}
	}
	return ItemRef(copied.Id), nil
}

func (c *GoogleClient) Relocate(ctx context.Context, id ItemRef, newParent ItemRef) error {
	var current *drive.File
	err := c.retry.Do(ctx, "files.get", func() error {
		var e error
		current, e = c.svc.Files.Get(string(id)).
			Fields("parents").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return mapErr(fmt.Sprintf("read parents of %s", id), err)
	}

	previous := strings.Join(current.Parents, ",")
	err = c.retry.Do(ctx, "files.update", func() error {
		_, e := c.svc.Files.Update(string(id), nil).
			AddParents(string(newParent)).
			RemoveParents(previous).
			Fields("id, parents").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return mapErr(fmt.Sprintf("relocate %s to %s", id, newParent), err)
	}
	return nil
}

func (c *GoogleClient) Download(ctx context.Context, id ItemRef) ([]byte, error) {
	var data []byte
	err := c.retry.Do(ctx, "files.get media", func() error {
		resp, e := c.svc.Files.Get(string(id)).
			SupportsAllDrives(true).
			Context(ctx).Download()
		if e != nil {
			return e
		}
		defer resp.Body.Close()
		data, e = io.ReadAll(resp.Body)
		return e
	})
	if err != nil {
		return nil, mapErr(fmt.Sprintf("download %s", id), err)
	}
	return data, nil
}

func (c *GoogleClient) Export(ctx context.Context, id ItemRef, mimeType string) ([]byte, error) {
	var data []byte
	err := c.retry.Do(ctx, "files.export", func() error {
		resp, e := c.svc.Files.Export(string(id), mimeType).
			Context(ctx).Download()
		if e != nil {
			return e
		}
		defer resp.Body.Close()
		data, e = io.ReadAll(resp.Body)
		return e
	})
	if err != nil {
		return nil, mapErr(fmt.Sprintf("export %s as %s", id, mimeType), err)
	}
	return data, nil
}

func (c *GoogleClient) Upload(ctx context.Context, name, mimeType string, data []byte) (ItemRef, error) {
	meta := &drive.File{Name: name}

	var created *drive.File
	err := c.retry.Do(ctx, "files.create media", func() error {
		// Media uses the client library's resumable upload above its
		// chunk threshold.
		var e error
		created, e = c.svc.Files.Create(meta).
			Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
			Fields("id").
			SupportsAllDrives(true).
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return "", mapErr(fmt.Sprintf("upload %q", name), err)
	}
	return ItemRef(created.Id), nil
}

func toMetadata(f *drive.File) *ItemMetadata {
	m := &ItemMetadata{
		ID:          ItemRef(f.Id),
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		MD5Checksum: f.Md5Checksum,
	}
	for _, owner := range f.Owners {
		if owner.EmailAddress != "" {
			m.Owners = append(m.Owners, owner.EmailAddress)
		} else if owner.DisplayName != "" {
			m.Owners = append(m.Owners, owner.DisplayName)
		}
	}
	for _, p := range f.Parents {
		m.Parents = append(m.Parents, ItemRef(p))
	}
	return m
}

func mapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 404 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// escapeQuery escapes a literal for embedding in a Drive search query.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
