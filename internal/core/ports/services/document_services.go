package services

import (
	"context"

	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	"github.com/kobisoft/mutabakat_app/internal/dto"
)

// DocumentSvcFacade owns the document lifecycle: creation in DRAFT and the
// role-gated transitions send, approve, reject and delete. Every transition
// validates authorization before touching state and fails without partial
// mutation.
type DocumentSvcFacade interface {
	CreateDocument(ctx context.Context, req dto.CreateDocumentRequest, creatorUserID string) (*domain.Document, error)
	GetDocument(ctx context.Context, documentNumber string, requestingUserID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, requestingUserID string, params dto.ListDocumentsParams) (*dto.ListDocumentsResponse, error)
	SendDocument(ctx context.Context, documentNumber string, actorUserID string) (*domain.Document, error)
	ApproveDocument(ctx context.Context, documentNumber string, actorUserID string) (*domain.Document, error)
	RejectDocument(ctx context.Context, documentNumber string, actorUserID string, reason string, requestStatement bool) (*domain.Document, error)
	DeleteDocument(ctx context.Context, documentNumber string, actorUserID string) error
}
