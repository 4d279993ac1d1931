package migrator

import (
	"context"
	"fmt"

	"github.com/drivetools/drive-migrate/pkg/driveclient"
)

// fakeDrive is an in-memory implementation of driveclient.Client. It keeps
// a real parent/child structure so relocations are observable, and records
// every mutating call in order.
type fakeDrive struct {
	items    map[driveclient.ItemRef]*driveclient.ItemMetadata
	children map[driveclient.ItemRef][]driveclient.ItemRef
	nextID   int
	ops      []string

	copyRejected  map[driveclient.ItemRef]bool // server-side copy fails for these
	downloadFails map[driveclient.ItemRef]bool
	uploadFails   bool
	listFails     map[driveclient.ItemRef]bool
	createFailsIn map[driveclient.ItemRef]bool
	relocateFails map[driveclient.ItemRef]bool
	metadataFails map[driveclient.ItemRef]error
	contents      map[driveclient.ItemRef][]byte
}

func newFakeDrive() *fakeDrive {
	f := &fakeDrive{
		items:         make(map[driveclient.ItemRef]*driveclient.ItemMetadata),
		children:      make(map[driveclient.ItemRef][]driveclient.ItemRef),
		copyRejected:  make(map[driveclient.ItemRef]bool),
		downloadFails: make(map[driveclient.ItemRef]bool),
		listFails:     make(map[driveclient.ItemRef]bool),
		createFailsIn: make(map[driveclient.ItemRef]bool),
		relocateFails: make(map[driveclient.ItemRef]bool),
		metadataFails: make(map[driveclient.ItemRef]error),
		contents:      make(map[driveclient.ItemRef][]byte),
	}
	f.items[driveclient.Root] = &driveclient.ItemMetadata{
		ID:       driveclient.Root,
		Name:     "root",
		MimeType: driveclient.FolderMimeType,
	}
	return f
}

func (f *fakeDrive) addFolder(id driveclient.ItemRef, name string, parent driveclient.ItemRef) {
	f.items[id] = &driveclient.ItemMetadata{
		ID:       id,
		Name:     name,
		MimeType: driveclient.FolderMimeType,
		Parents:  []driveclient.ItemRef{parent},
	}
	f.children[parent] = append(f.children[parent], id)
}

func (f *fakeDrive) addFile(id driveclient.ItemRef, name, mimeType string, parent driveclient.ItemRef, content []byte) {
	f.items[id] = &driveclient.ItemMetadata{
		ID:       id,
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Parents:  []driveclient.ItemRef{parent},
	}
	f.children[parent] = append(f.children[parent], id)
	f.contents[id] = content
}

func (f *fakeDrive) newID() driveclient.ItemRef {
	f.nextID++
	return driveclient.ItemRef(fmt.Sprintf("gen%d", f.nextID))
}

func (f *fakeDrive) record(format string, args ...interface{}) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

// parentOf returns the current parent of id, "" when the item is unknown.
func (f *fakeDrive) parentOf(id driveclient.ItemRef) driveclient.ItemRef {
	item, ok := f.items[id]
	if !ok || len(item.Parents) == 0 {
		return ""
	}
	return item.Parents[0]
}

func (f *fakeDrive) GetMetadata(ctx context.Context, id driveclient.ItemRef) (*driveclient.ItemMetadata, error) {
	if err, ok := f.metadataFails[id]; ok {
		return nil, err
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("get metadata for %s: %w", id, driveclient.ErrNotFound)
	}
	snapshot := *item
	return &snapshot, nil
}

func (f *fakeDrive) ListChildren(ctx context.Context, folder driveclient.ItemRef) ([]*driveclient.ItemMetadata, error) {
	if f.listFails[folder] {
		return nil, fmt.Errorf("list children of %s: listing unavailable", folder)
	}
	var out []*driveclient.ItemMetadata
	for _, id := range f.children[folder] {
		snapshot := *f.items[id]
		out = append(out, &snapshot)
	}
	return out, nil
}

func (f *fakeDrive) FindFolder(ctx context.Context, name string, parent driveclient.ItemRef) (driveclient.ItemRef, error) {
	for _, id := range f.children[parent] {
		item := f.items[id]
		if item.MimeType == driveclient.FolderMimeType && item.Name == name {
			return id, nil
		}
	}
	return "", fmt.Errorf("find folder %q: %w", name, driveclient.ErrNotFound)
}

func (f *fakeDrive) CreateFolder(ctx context.Context, name string, parent driveclient.ItemRef) (driveclient.ItemRef, error) {
	if f.createFailsIn[parent] {
		return "", fmt.Errorf("create folder %q: quota exceeded", name)
	}
	id := f.newID()
	f.addFolder(id, name, parent)
	f.record("create %s in %s", name, parent)
	return id, nil
}

func (f *fakeDrive) CopyItem(ctx context.Context, id driveclient.ItemRef, newName string) (driveclient.ItemRef, error) {
	src, ok := f.items[id]
	if !ok {
		return "", &driveclient.CopyError{ID: id, Err: driveclient.ErrNotFound}
	}
	if f.copyRejected[id] {
		return "", &driveclient.CopyError{ID: id, Err: fmt.Errorf("copy not supported")}
	}
	dup := f.newID()
	f.addFile(dup, newName, src.MimeType, f.parentOf(id), f.contents[id])
	f.record("copy %s -> %s", id, dup)
	return dup, nil
}

func (f *fakeDrive) Relocate(ctx context.Context, id, newParent driveclient.ItemRef) error {
	if f.relocateFails[id] {
		return fmt.Errorf("relocate %s: update rejected", id)
	}
	item, ok := f.items[id]
	if !ok {
		return fmt.Errorf("relocate %s: %w", id, driveclient.ErrNotFound)
	}
	old := f.parentOf(id)
	siblings := f.children[old]
	for i, sib := range siblings {
		if sib == id {
			f.children[old] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	item.Parents = []driveclient.ItemRef{newParent}
	f.children[newParent] = append(f.children[newParent], id)
	f.record("relocate %s -> %s", id, newParent)
	return nil
}

func (f *fakeDrive) Download(ctx context.Context, id driveclient.ItemRef) ([]byte, error) {
	if f.downloadFails[id] {
		return nil, fmt.Errorf("download %s: content unavailable", id)
	}
	data, ok := f.contents[id]
	if !ok {
		return nil, fmt.Errorf("download %s: %w", id, driveclient.ErrNotFound)
	}
	f.record("download %s", id)
	return data, nil
}

func (f *fakeDrive) Export(ctx context.Context, id driveclient.ItemRef, mimeType string) ([]byte, error) {
	data, ok := f.contents[id]
	if !ok {
		return nil, fmt.Errorf("export %s: %w", id, driveclient.ErrNotFound)
	}
	f.record("export %s as %s", id, mimeType)
	return data, nil
}

func (f *fakeDrive) Upload(ctx context.Context, name, mimeType string, data []byte) (driveclient.ItemRef, error) {
	if f.uploadFails {
		return "", fmt.Errorf("upload %q: storage full", name)
	}
	id := f.newID()
	f.addFile(id, name, mimeType, driveclient.Root, data)
	f.record("upload %s -> %s", name, id)
	return id, nil
}
