// Package storage persists comment attachments on disk and their metadata
// rows in the database.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/m-troja/taskstorm/internal/models"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"gorm.io/gorm"
)

// allowedExtensions is the image allow-list for uploads. Everything else
// is rejected before any bytes touch the disk.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Store writes attachment files under a root directory.
type Store struct {
	root    string
	maxSize int64
}

// StoreOpts holds parameters for creating a Store.
type StoreOpts struct {
	Dir          string // upload directory, created if absent
	MaxSizeBytes int64
}

// New creates a Store rooted at the configured upload directory.
func New(opts StoreOpts) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("storage: upload dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &Store{root: opts.Dir, maxSize: opts.MaxSizeBytes}, nil
}

// Root returns the upload directory, for static file serving.
func (s *Store) Root() string { return s.root }

// Save validates the file against the allow-list, writes it under a
// generated uuid name, and records the metadata row. A partially written
// file is removed when anything fails.
func (s *Store) Save(db *gorm.DB, commentID int, fileName string, src io.Reader) (*models.CommentAttachment, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, taskerr.New(taskerr.BadRequest, "file type %q is not allowed", ext)
	}

	var count int64
	if err := db.Model(&models.Comment{}).Where("id = ?", commentID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("storage: check comment %d: %w", commentID, err)
	}
	if count == 0 {
		return nil, taskerr.New(taskerr.ContentNotFound, "comment %d was not found", commentID)
	}

	storedName := uuid.NewString() + ext
	path := filepath.Join(s.root, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", path, err)
	}

	reader := src
	if s.maxSize > 0 {
		reader = io.LimitReader(src, s.maxSize+1)
	}
	written, err := io.Copy(dst, reader)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && written > s.maxSize {
		err = taskerr.New(taskerr.BadRequest, "file exceeds the %d byte limit", s.maxSize)
	}
	if err != nil {
		os.Remove(path)
		if taskerr.Is(err, taskerr.BadRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("storage: write %s: %w", path, err)
	}

	att := models.CommentAttachment{
		CommentID:  commentID,
		StoredName: storedName,
		Path:       path,
		FileName:   fileName,
	}
	if err := db.Create(&att).Error; err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("storage: record attachment: %w", err)
	}
	log.Printf("storage: saved %s as %s (%d bytes)", fileName, storedName, written)
	return &att, nil
}

// GetByID fetches an attachment's metadata row.
func (s *Store) GetByID(db *gorm.DB, id int) (*models.CommentAttachment, error) {
	var att models.CommentAttachment
	err := db.First(&att, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taskerr.New(taskerr.ContentNotFound, "attachment %d was not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %d: %w", id, err)
	}
	return &att, nil
}

// Open returns a reader for the attachment's file content. The caller
// closes it.
func (s *Store) Open(db *gorm.DB, id int) (*models.CommentAttachment, io.ReadCloser, error) {
	att, err := s.GetByID(db, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(att.Path)
	if os.IsNotExist(err) {
		return nil, nil, taskerr.New(taskerr.ContentNotFound, "attachment %d file is missing", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storage: open %s: %w", att.Path, err)
	}
	return att, f, nil
}

// Delete removes both the metadata row and the file on disk. A file that
// is already gone is logged, not treated as an error.
func (s *Store) Delete(db *gorm.DB, id int) error {
	att, err := s.GetByID(db, id)
	if err != nil {
		return err
	}
	if err := db.Delete(&models.CommentAttachment{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("storage: delete attachment %d: %w", id, err)
	}
	if err := os.Remove(att.Path); err != nil {
		if os.IsNotExist(err) {
			log.Printf("storage: file %s already gone", att.Path)
			return nil
		}
		return fmt.Errorf("storage: remove %s: %w", att.Path, err)
	}
	return nil
}

// ContentType returns the MIME type for a stored file name, or an empty
// string for unknown extensions.
func ContentType(fileName string) string {
	return allowedExtensions[strings.ToLower(filepath.Ext(fileName))]
}
