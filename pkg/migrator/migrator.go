// Package migrator implements the recursive tree migration: every item
// named by the manifest is duplicated in place and the original is
// relocated into a backup folder, folders depth-first so a folder only
// moves after its whole subtree has been handled.
package migrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/drivetools/drive-migrate/pkg/driveclient"
	"github.com/drivetools/drive-migrate/pkg/logger"
)

const (
	DefaultBackupFolderName = "bak"
	DefaultMaxDepth         = 100
)

// Status is the outcome of one item's migration.
type Status string

const (
	StatusMigrated    Status = "migrated"
	StatusAlreadyDone Status = "already-done"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

// Result records the outcome for a single item. A tree migration yields one
// Result per visited item, children before their parent folder.
type Result struct {
	ID     driveclient.ItemRef
	Name   string
	Kind   driveclient.Kind
	Status Status
	Reason string
	Bytes  int64 // content re-uploaded through the fallback path
	Err    error
}

// Options configures a Migrator. Zero fields get defaults.
type Options struct {
	BackupFolderName string
	Excludes         []string // doublestar patterns matched against item names
	MaxDepth         int
	Logger           logger.Logger
}

// Migrator walks remote trees and moves originals into the backup tree.
// It issues operations strictly sequentially.
type Migrator struct {
	client     driveclient.Client
	log        logger.Logger
	backupName string
	excludes   []string
	maxDepth   int
}

func New(client driveclient.Client, opts Options) *Migrator {
	if opts.BackupFolderName == "" {
		opts.BackupFolderName = DefaultBackupFolderName
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = logger.NullLogger{}
	}
	return &Migrator{
		client:     client,
		log:        opts.Logger,
		backupName: opts.BackupFolderName,
		excludes:   opts.Excludes,
		maxDepth:   opts.MaxDepth,
	}
}

// EnsureBackupRoot locates the backup folder by name under the tree root,
// creating it if absent. Failure here aborts the run; nothing can be
// migrated without a destination.
func (m *Migrator) EnsureBackupRoot(ctx context.Context) (driveclient.ItemRef, error) {
	id, err := m.client.FindFolder(ctx, m.backupName, driveclient.Root)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, driveclient.ErrNotFound) {
		return "", fmt.Errorf("locate backup folder: %w", err)
	}

	id, err = m.client.CreateFolder(ctx, m.backupName, driveclient.Root)
	if err != nil {
		return "", fmt.Errorf("create backup folder: %w", err)
	}
	return id, nil
}

// Migrate processes the tree rooted at id, relocating originals into dest.
// Failures are contained per branch; the returned results list every item
// visited with its outcome.
func (m *Migrator) Migrate(ctx context.Context, id, dest driveclient.ItemRef) []Result {
	var results []Result
	m.migrateItem(ctx, id, dest, 0, &results)
	return results
}

// migrateItem handles one item and reports whether it ended up out of its
// original location (relocated, or found to be gone already). A parent
// folder is relocated only when every child reports true.
func (m *Migrator) migrateItem(ctx context.Context, id, dest driveclient.ItemRef, depth int, results *[]Result) bool {
	if depth > m.maxDepth {
		*results = append(*results, Result{
			ID: id, Status: StatusFailed,
			Reason: fmt.Sprintf("tree deeper than %d levels", m.maxDepth),
		})
		return false
	}

	meta, err := m.client.GetMetadata(ctx, id)
	if err != nil {
		if depth == 0 && errors.Is(err, driveclient.ErrNotFound) {
			// The item is no longer where the manifest points at it. On a
			// re-run that means a previous pass already relocated it.
			m.log.Skip("", string(id), "not found, treating as already migrated")
			*results = append(*results, Result{
				ID: id, Status: StatusAlreadyDone,
				Reason: "not found under original location",
			})
			return true
		}
		m.log.Error("get metadata", string(id), err)
		*results = append(*results, Result{
			ID: id, Status: StatusFailed, Reason: "metadata unavailable", Err: err,
		})
		return false
	}

	if m.isExcluded(meta.Name) {
		m.log.Skip(meta.Name, string(id), "matches exclude pattern")
		*results = append(*results, Result{
			ID: id, Name: meta.Name, Kind: meta.Kind(),
			Status: StatusSkipped, Reason: "excluded",
		})
		return false
	}

	if meta.Kind() == driveclient.KindFolder {
		return m.migrateFolder(ctx, meta, dest, depth, results)
	}
	return m.migrateFile(ctx, meta, dest, results)
}

func (m *Migrator) migrateFolder(ctx context.Context, meta *driveclient.ItemMetadata, dest driveclient.ItemRef, depth int, results *[]Result) bool {
	m.log.Process("folder", meta.Name, string(meta.ID))

	mirror, err := m.client.CreateFolder(ctx, meta.Name, dest)
	if err != nil {
		m.log.Error("create mirror folder", string(meta.ID), err)
		*results = append(*results, Result{
			ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFolder,
			Status: StatusFailed, Reason: "mirror folder creation failed", Err: err,
		})
		return false
	}

	children, err := m.client.ListChildren(ctx, meta.ID)
	if err != nil {
		m.log.Error("list children", string(meta.ID), err)
		*results = append(*results, Result{
			ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFolder,
			Status: StatusFailed, Reason: "listing children failed", Err: err,
		})
		return false
	}

	// Each child gets the mirror folder as its own backup destination.
	// Child failures are isolated from siblings.
	allDone := true
	for _, child := range children {
		if !m.migrateItem(ctx, child.ID, mirror, depth+1, results) {
			allDone = false
		}
	}

	if !allDone {
		// Relocating now would drag unprocessed children into the backup
		// tree without a duplicate. Leave the folder in place; a re-run
		// picks up where this one stopped.
		*results = append(*results, Result{
			ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFolder,
			Status: StatusFailed, Reason: "not relocated: unprocessed children remain",
		})
		return false
	}

	if err := m.client.Relocate(ctx, meta.ID, dest); err != nil {
		m.log.Error("relocate folder", string(meta.ID), err)
		*results = append(*results, Result{
			ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFolder,
			Status: StatusFailed, Reason: "relocate failed", Err: err,
		})
		return false
	}

	m.log.Relocate(meta.Name, string(meta.ID), string(dest))
	*results = append(*results, Result{
		ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFolder,
		Status: StatusMigrated,
	})
	return true
}

func (m *Migrator) migrateFile(ctx context.Context, meta *driveclient.ItemMetadata, dest driveclient.ItemRef, results *[]Result) bool {
	m.log.Process("file", meta.Name, string(meta.ID))

	var bytes int64
	dupID, err := m.client.CopyItem(ctx, meta.ID, meta.Name)
	if err == nil {
		m.log.Copy(meta.Name, string(meta.ID), string(dupID))
	} else {
		m.log.Error("copy", string(meta.ID), err)

		dupID, bytes, err = m.duplicate(ctx, meta)
		if err != nil {
			m.log.Error("duplicate", string(meta.ID), err)
			*results = append(*results, Result{
				ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFile,
				Status: StatusFailed, Reason: "copy and fallback duplication both failed", Err: err,
			})
			return false
		}
		m.log.Duplicate(meta.Name, string(meta.ID), string(dupID))
	}

	// The duplicate exists, so relocating the original cannot lose data.
	// If relocation fails the duplicate remains as a stray item and a
	// re-run recovers.
	if err := m.client.Relocate(ctx, meta.ID, dest); err != nil {
		m.log.Error("relocate file", string(meta.ID), err)
		*results = append(*results, Result{
			ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFile,
			Status: StatusFailed, Reason: "relocate failed", Bytes: bytes, Err: err,
		})
		return false
	}

	m.log.Relocate(meta.Name, string(meta.ID), string(dest))
	*results = append(*results, Result{
		ID: meta.ID, Name: meta.Name, Kind: driveclient.KindFile,
		Status: StatusMigrated, Bytes: bytes,
	})
	return true
}

func (m *Migrator) isExcluded(name string) bool {
	for _, pattern := range m.excludes {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
