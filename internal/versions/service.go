package versions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	docrepo "github.com/promptshare/promptshare/backend/go-services/internal/document/repository"
	"github.com/promptshare/promptshare/backend/go-services/internal/models"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/promptshare/promptshare/backend/go-services/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// DocumentStore is the part of the document store the version log needs.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	ApplyVersion(ctx context.Context, id string, fields document.Fields, version int, at time.Time) (*document.Document, error)
}

// Directory resolves actor ids to users for author names.
type Directory interface {
	Lookup(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Archiver copies version snapshots to long-term storage.
type Archiver interface {
	ArchiveVersion(ctx context.Context, v *Version) error
	VersionURL(ctx context.Context, v *Version, expires time.Duration) (string, error)
}

// SaveInput carries one save. Nil optional fields keep the document's current value.
type SaveInput struct {
	DocumentID  string
	ActorID     string
	Content     string
	Title       *string
	Description *string
	Category    *string
	Tags        []string
	Message     string
}

// Service implements the version store: save, list and revert.
type Service struct {
	repo      Repository
	docs      DocumentStore
	alloc     Allocator
	directory Directory
	archiver  Archiver
	retries   int
	now       func() time.Time
}

type Option func(*Service)

func WithAllocator(a Allocator) Option { return func(s *Service) { s.alloc = a } }

func WithDirectory(d Directory) Option { return func(s *Service) { s.directory = d } }

func WithArchiver(a Archiver) Option { return func(s *Service) { s.archiver = a } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRetries bounds how many version numbers a single save may try.
func WithRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

func NewService(repo Repository, docs DocumentStore, opts ...Option) *Service {
	s := &Service{repo: repo, docs: docs, retries: 5, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	if s.alloc == nil {
		s.alloc = NewMaxAllocator(repo)
	}
	return s
}

// Save snapshots the given content as the document's next version and makes
// it the document's current state.
func (s *Service) Save(ctx context.Context, in SaveInput) (*Version, error) {
	if strings.TrimSpace(in.DocumentID) == "" {
		return nil, apperr.Validation("documentId is required")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return nil, apperr.ErrUnauthorized
	}
	doc, err := s.loadDocument(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}

	fields := doc.Fields.Clone()
	fields.Content = in.Content
	if in.Title != nil {
		fields.Title = *in.Title
	}
	if in.Description != nil {
		fields.Description = *in.Description
	}
	if in.Category != nil {
		fields.Category = *in.Category
	}
	if in.Tags != nil {
		fields.Tags = append([]string(nil), in.Tags...)
	}

	v, err := s.append(ctx, doc.ID, fields, in.ActorID, in.Message, KindSave, 0)
	if err != nil {
		return nil, err
	}
	if _, err := s.docs.ApplyVersion(ctx, doc.ID, fields, v.VersionNumber, v.CreatedAt); err != nil {
		return nil, s.documentError("apply saved version", err)
	}
	return v, nil
}

// List returns the document's versions, newest first. Callers enforce read access.
func (s *Service) List(ctx context.Context, documentID string) ([]*Version, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Validation("documentId is required")
	}
	list, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, apperr.Infra("list versions", err)
	}
	return list, nil
}

// Get returns one version of the document.
func (s *Service) Get(ctx context.Context, documentID, versionID string) (*Version, error) {
	if strings.TrimSpace(versionID) == "" {
		return nil, apperr.Validation("versionId is required")
	}
	v, err := s.repo.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("version " + versionID)
		}
		return nil, apperr.Infra("get version", err)
	}
	if v.DocumentID != documentID {
		return nil, apperr.NotFound("version " + versionID)
	}
	return v, nil
}

// ArchiveURL returns a time-limited download link for an archived snapshot.
func (s *Service) ArchiveURL(ctx context.Context, documentID, versionID string, expires time.Duration) (string, error) {
	if s.archiver == nil {
		return "", apperr.NotFound("version archive")
	}
	v, err := s.Get(ctx, documentID, versionID)
	if err != nil {
		return "", err
	}
	u, err := s.archiver.VersionURL(ctx, v, expires)
	if err != nil {
		return "", apperr.Infra("presign version archive", err)
	}
	return u, nil
}

// Revert restores the versioned fields of a previous version. The current
// state is first saved as a backup version; attachments keep their current value.
func (s *Service) Revert(ctx context.Context, documentID, actorID, targetVersionID string) (*RevertResult, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Validation("documentId is required")
	}
	if strings.TrimSpace(targetVersionID) == "" {
		return nil, apperr.Validation("targetVersionId is required")
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, apperr.ErrUnauthorized
	}
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != actorID {
		return nil, apperr.Forbidden("only the document owner can revert")
	}
	target, err := s.Get(ctx, documentID, targetVersionID)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Backup before reverting to version %d", target.VersionNumber)
	backup, err := s.append(ctx, doc.ID, doc.Fields, actorID, message, KindRevertBackup, target.VersionNumber)
	if err != nil {
		return nil, err
	}

	updated, err := s.docs.ApplyVersion(ctx, doc.ID, target.Snapshot.Clone(), backup.VersionNumber, s.now())
	if err != nil {
		// the backup stays in history; it is a valid snapshot of the pre-revert state
		logger.WithFields(logrus.Fields{
			"document_id": doc.ID,
			"backup_id":   backup.ID,
			"target":      target.VersionNumber,
		}).WithError(err).Error("revert: document update failed after backup was written")
		return nil, s.documentError("apply reverted version", err)
	}
	metrics.Reverts.Inc()
	logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"actor_id":    actorID,
		"from":        doc.Version,
		"to":          backup.VersionNumber,
		"target":      target.VersionNumber,
	}).Info("document reverted")

	return &RevertResult{
		Document:            updated,
		Backup:              backup,
		PreviousVersion:     doc.Version,
		NewVersion:          backup.VersionNumber,
		RevertedFromVersion: target.VersionNumber,
	}, nil
}

// append writes a new immutable version, retrying with a fresh number when a
// concurrent writer took the candidate.
func (s *Service) append(ctx context.Context, documentID string, fields document.Fields, actorID, message string, kind Kind, revertedFrom int) (*Version, error) {
	author := s.authorName(ctx, actorID)
	for attempt := 1; attempt <= s.retries; attempt++ {
		n, err := s.alloc.Next(ctx, documentID)
		if err != nil {
			return nil, apperr.Infra("allocate version number", err)
		}
		prev, err := s.repo.Before(ctx, documentID, n)
		if err != nil {
			return nil, apperr.Infra("load previous version", err)
		}
		previousContent := ""
		if prev != nil {
			previousContent = prev.Snapshot.Content
		}
		v := &Version{
			ID:             uuid.NewString(),
			DocumentID:     documentID,
			VersionNumber:  n,
			Snapshot:       fields.Clone(),
			AuthorID:       actorID,
			AuthorName:     author,
			Message:        message,
			ChangesSummary: Diff(previousContent, fields.Content),
			Kind:           kind,
			RevertedFrom:   revertedFrom,
			CreatedAt:      s.now(),
		}
		err = s.repo.Insert(ctx, v)
		if errors.Is(err, ErrDuplicateVersion) {
			metrics.VersionConflicts.Inc()
			logger.Debugf("version %d of %s already taken (attempt %d/%d)", n, documentID, attempt, s.retries)
			if r, ok := s.alloc.(Resyncer); ok {
				if err := r.Resync(ctx, documentID); err != nil {
					logger.Warnf("resync version counter for %s: %v", documentID, err)
				}
			}
			continue
		}
		if err != nil {
			return nil, apperr.Infra("insert version", err)
		}
		metrics.VersionsCreated.WithLabelValues(string(kind)).Inc()
		s.archive(ctx, v)
		return v, nil
	}
	return nil, apperr.Infra("insert version", fmt.Errorf("no free version number for %s after %d attempts", documentID, s.retries))
}

func (s *Service) archive(ctx context.Context, v *Version) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveVersion(ctx, v); err != nil {
		logger.Warnf("archive version %s/%d: %v", v.DocumentID, v.VersionNumber, err)
	}
}

func (s *Service) authorName(ctx context.Context, actorID string) string {
	if s.directory == nil {
		return actorID
	}
	users, err := s.directory.Lookup(ctx, []string{actorID})
	if err != nil {
		logger.Warnf("author lookup for %s: %v", actorID, err)
		return actorID
	}
	return models.DisplayName(users[actorID], actorID)
}

func (s *Service) loadDocument(ctx context.Context, id string) (*document.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, s.documentError("load document", err)
	}
	return doc, nil
}

func (s *Service) documentError(op string, err error) error {
	if errors.Is(err, docrepo.ErrNotFound) {
		return apperr.NotFound("document")
	}
	return apperr.Infra(op, err)
}
