package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/godrive/pkg/blob"
	"github.com/mwantia/godrive/pkg/db/models"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
	"gorm.io/gorm"
)

// Service owns all folder and file operations for authenticated users
type Service struct {
	store store.MetadataStore
	blobs blob.Store
	log   log.LoggerService
}

// Upload bundles one file of a batch upload request.
type Upload struct {
	Name    string
	Content io.Reader
}

// Listing is the content of one folder level plus the data the dashboard
// needs to render it.
type Listing struct {
	Current     *models.Folder
	Breadcrumbs []models.Folder
	Folders     []models.Folder
	Files       []models.File
}

func NewService(metadata store.MetadataStore, blobs blob.Store, logger log.LoggerService) *Service {
	return &Service{
		store: metadata,
		blobs: blobs,
		log:   logger.Named("drive"),
	}
}

// CreateFolder inserts a new folder owned by ownerID. A nil parentID creates
// the folder at the root level; otherwise the parent must exist and belong
// to the same owner.
func (s *Service) CreateFolder(ctx context.Context, ownerID uint, name string, parentID *uint) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name must not be empty: %w", ErrValidation)
	}

	if parentID != nil {
		if _, err := s.folderOwned(ctx, *parentID, ownerID); err != nil {
			return nil, err
		}
	}

	folder := &models.Folder{
		Name:     name,
		UserID:   ownerID,
		ParentID: parentID,
	}

	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	s.log.Info("created folder %q (id %d) for user %d", folder.Name, folder.ID, ownerID)
	return folder, nil
}

// ListChildren returns the folders and files directly contained in the given
// folder, or at the root level when parentID is nil. Ordering follows
// insertion order.
func (s *Service) ListChildren(ctx context.Context, ownerID uint, parentID *uint) ([]models.Folder, []models.File, error) {
	if parentID != nil {
		if _, err := s.folderOwned(ctx, *parentID, ownerID); err != nil {
			return nil, nil, err
		}
	}

	folders, err := s.store.ListFolders(ctx, ownerID, parentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list folders: %w", err)
	}

	files, err := s.store.ListFiles(ctx, ownerID, parentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list files: %w", err)
	}

	return folders, files, nil
}

// Dashboard resolves one folder level for display: the current folder (nil at
// root), its ancestor chain, and its direct children.
func (s *Service) Dashboard(ctx context.Context, ownerID uint, folderID *uint) (*Listing, error) {
	listing := &Listing{}

	if folderID != nil {
		current, err := s.folderOwned(ctx, *folderID, ownerID)
		if err != nil {
			return nil, err
		}
		listing.Current = current

		crumbs, err := s.Breadcrumbs(ctx, current)
		if err != nil {
			return nil, err
		}
		listing.Breadcrumbs = crumbs
	}

	folders, files, err := s.ListChildren(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}

	listing.Folders = folders
	listing.Files = files
	return listing, nil
}

// Breadcrumbs walks the parent chain of folder and returns it ordered
// root-first, excluding folder itself. A root-level folder yields an empty
// chain. A cyclic parent graph is reported as an error instead of looping.
func (s *Service) Breadcrumbs(ctx context.Context, folder *models.Folder) ([]models.Folder, error) {
	chain := []models.Folder{}
	visited := map[uint]bool{folder.ID: true}

	current := folder
	for current.ParentID != nil {
		parent, err := s.store.GetFolder(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("parent folder %d: %w", *current.ParentID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to resolve parent folder: %w", err)
		}

		if visited[parent.ID] {
			return nil, fmt.Errorf("folder %d has a cyclic parent chain", folder.ID)
		}
		visited[parent.ID] = true

		chain = append([]models.Folder{*parent}, chain...)
		current = parent
	}

	return chain, nil
}

// Upload stores a batch of files into the given folder (root when folderID is
// nil) and returns the number of files that made it. Each file passes the
// extension allow-list and sanitization, gets a collision-free name inside the
// owner's upload directory, and is written to the blob store before its
// metadata record is inserted. A failing file never aborts the rest of the
// batch.
func (s *Service) Upload(ctx context.Context, ownerID uint, folderID *uint, uploads []Upload) (int, error) {
	if folderID != nil {
		if _, err := s.folderOwned(ctx, *folderID, ownerID); err != nil {
			return 0, err
		}
	}

	dir := strconv.FormatUint(uint64(ownerID), 10)
	uploaded := 0

	for _, u := range uploads {
		name := blob.SanitizeFilename(u.Name)
		if name == "" || !blob.AllowedExtension(name) {
			s.log.Warn("rejected upload %q for user %d: extension not allowed", u.Name, ownerID)
			continue
		}

		final := blob.ResolveName(s.blobs, dir, name)
		storagePath := path.Join(dir, final)

		written, err := s.blobs.Write(storagePath, u.Content)
		if err != nil {
			s.log.Error("failed to store %q for user %d: %v", final, ownerID, err)
			continue
		}

		file := &models.File{
			Name:        final,
			StoragePath: storagePath,
			Size:        written,
			UserID:      ownerID,
			FolderID:    folderID,
		}

		if err := s.store.CreateFile(ctx, file); err != nil {
			s.log.Error("failed to record %q for user %d: %v", final, ownerID, err)
			s.removeBlob(storagePath)
			continue
		}

		s.log.Info("uploaded %q (%s) for user %d", final, humanize.Bytes(uint64(written)), ownerID)
		uploaded++
	}

	return uploaded, nil
}

// Download returns the metadata and content of a file after the ownership
// check. The caller is responsible for closing the reader.
func (s *Service) Download(ctx context.Context, ownerID, fileID uint) (*models.File, io.ReadCloser, error) {
	file, err := s.fileOwned(ctx, fileID, ownerID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.blobs.Open(file.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open blob %s: %w", file.StoragePath, ErrStorage)
	}

	return file, content, nil
}

// DeleteFile removes a single file: blob first (best effort), then the
// metadata record, committed immediately.
func (s *Service) DeleteFile(ctx context.Context, ownerID, fileID uint) error {
	file, err := s.fileOwned(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	s.removeBlob(file.StoragePath)

	if err := s.store.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("failed to delete file record %d: %w", file.ID, err)
	}

	s.log.Info("deleted file %q (id %d) for user %d", file.Name, file.ID, ownerID)
	return nil
}

// DeleteFolder removes the subtree rooted at folderID: every descendant
// folder and every contained file. Blob removal is attempted per file and
// never blocks the cascade; all record deletions commit in one transaction,
// children before parents.
func (s *Service) DeleteFolder(ctx context.Context, ownerID, folderID uint) error {
	folder, err := s.folderOwned(ctx, folderID, ownerID)
	if err != nil {
		return err
	}

	// Walk the subtree with an explicit stack so deep trees cannot exhaust
	// the call stack. Folders are collected parent-first.
	var (
		order []uint
		files []models.File
		stack = []models.Folder{*folder}
		seen  = map[uint]bool{}
	)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[current.ID] {
			continue
		}
		seen[current.ID] = true
		order = append(order, current.ID)

		contained, err := s.store.ListFiles(ctx, ownerID, &current.ID)
		if err != nil {
			return fmt.Errorf("failed to list files of folder %d: %w", current.ID, err)
		}
		files = append(files, contained...)

		children, err := s.store.ListFolders(ctx, ownerID, &current.ID)
		if err != nil {
			return fmt.Errorf("failed to list children of folder %d: %w", current.ID, err)
		}
		stack = append(stack, children...)
	}

	for _, file := range files {
		s.removeBlob(file.StoragePath)
	}

	err = s.store.Transaction(ctx, func(tx store.MetadataStore) error {
		for _, file := range files {
			if err := tx.DeleteFile(ctx, file.ID); err != nil {
				return fmt.Errorf("failed to delete file record %d: %w", file.ID, err)
			}
		}
		// Reverse visit order deletes children before their parents.
		for i := len(order) - 1; i >= 0; i-- {
			if err := tx.DeleteFolder(ctx, order[i]); err != nil {
				return fmt.Errorf("failed to delete folder record %d: %w", order[i], err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("deleted folder %q (id %d) with %d descendants and %d files for user %d",
		folder.Name, folder.ID, len(order)-1, len(files), ownerID)
	return nil
}

// removeBlob attempts to delete a blob and only logs on failure. Metadata
// consistency is prioritized over blob consistency, so orphaned blobs are an
// accepted failure mode.
func (s *Service) removeBlob(storagePath string) {
	if err := s.blobs.Remove(storagePath); err != nil {
		s.log.Error("failed to remove blob %s: %v", storagePath, err)
	}
}

// folderOwned resolves a folder and enforces the ownership rule. A missing
// id maps to ErrNotFound before any ownership comparison.
func (s *Service) folderOwned(ctx context.Context, id, ownerID uint) (*models.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("folder %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load folder %d: %w", id, err)
	}
	if folder.UserID != ownerID {
		return nil, fmt.Errorf("folder %d: %w", id, ErrForbidden)
	}
	return folder, nil
}

// fileOwned resolves a file and enforces the ownership rule.
func (s *Service) fileOwned(ctx context.Context, id, ownerID uint) (*models.File, error) {
	file, err := s.store.GetFile(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load file %d: %w", id, err)
	}
	if file.UserID != ownerID {
		return nil, fmt.Errorf("file %d: %w", id, ErrForbidden)
	}
	return file, nil
}
