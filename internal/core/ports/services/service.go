package services

// ServiceContainer holds all service interfaces used by handlers and commands.
type ServiceContainer struct {
	Account    AccountSvcFacade
	Category   CategorySvcFacade
	Ledger     LedgerSvcFacade
	Adjustment BalanceAdjustmentSvc
	Rates      RateResolverSvc
	Conversion ConversionSvc
	Backfill   BackfillSvc
	Statistics StatisticsSvc
}
