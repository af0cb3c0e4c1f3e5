package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	documentRepo := newPgxDocumentRepository(dbPool)
	partyRepo := newPgxPartyRepository(dbPool)
	tokenRepo := newPgxApprovalTokenRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		DocumentRepo: documentRepo,
		PartyRepo:    partyRepo,
		TokenRepo:    tokenRepo,
		UserRepo:     userRepo,
	}
}
