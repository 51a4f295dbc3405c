package service

import (
	"context"
	"errors"
	"strings"

	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	"github.com/promptshare/promptshare/backend/go-services/internal/document/repository"
)

// CreateInput describes a new prompt document.
type CreateInput struct {
	OwnerID     string
	IsPublic    bool
	Fields      document.Fields
	Attachments []document.Attachment
}

// Service defines the document operations used by the handler layer and by
// the collaboration services as their document store boundary.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*document.Document, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context) ([]*document.Document, error)
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

// New returns a Service over any repository implementation.
func New(repo repository.Repository) Service {
	return &docService{repo: repo}
}

type docService struct {
	repo repository.Repository
}

func (s *docService) Create(ctx context.Context, in CreateInput) (*document.Document, error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, apperr.ErrUnauthorized
	}
	if in.Fields.Title == "" {
		in.Fields.Title = "untitled prompt"
	}
	d := &document.Document{
		OwnerID:     in.OwnerID,
		IsPublic:    in.IsPublic,
		Fields:      in.Fields.Clone(),
		Attachments: in.Attachments,
	}
	if _, err := s.repo.Create(ctx, d); err != nil {
		return nil, apperr.Infra("create document", err)
	}
	return d, nil
}

func (s *docService) Get(ctx context.Context, id string) (*document.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("documentId is required")
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("document " + id)
		}
		return nil, apperr.Infra("get document", err)
	}
	return d, nil
}

func (s *docService) List(ctx context.Context) ([]*document.Document, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Infra("list documents", err)
	}
	return list, nil
}
