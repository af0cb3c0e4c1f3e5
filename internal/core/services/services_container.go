package services

import (
	portsrepo "github.com/kobisoft/mutabakat_app/internal/core/ports/repositories"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/platform/config"
)

// NewServiceContainer wires every service with its repositories.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Document: NewDocumentService(repos.DocumentRepo, repos.PartyRepo, repos.TokenRepo, repos.UserRepo),
		Import:   NewImportService(cfg, repos.DocumentRepo, repos.PartyRepo, repos.UserRepo),
		Approval: NewApprovalService(repos.TokenRepo, repos.DocumentRepo, repos.PartyRepo),
		User:     NewUserService(repos.UserRepo),
	}
}
