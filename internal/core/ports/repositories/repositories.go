package repositories

// RepositoryProvider bundles all repository implementations for injection
// into the service container.
type RepositoryProvider struct {
	DocumentRepo DocumentRepository
	PartyRepo    PartyRepository
	TokenRepo    ApprovalTokenRepository
	UserRepo     UserRepository
}
