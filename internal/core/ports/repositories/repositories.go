package repositories

// RepositoryProvider is a container for all repositories.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	CategoryRepo    CategoryRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	LedgerStore     LedgerStore
	RateCache       RateCacheFacade
}
