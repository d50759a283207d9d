package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles every repository the service uses.
type Repositories struct {
	PaymentRequest  PaymentRequestRepository
	FeeTransaction  FeeTransactionRepository
	AgentCredential AgentCredentialRepository
}

// NewRepositories creates the GORM-backed repository set.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		PaymentRequest:  NewPaymentRequestRepository(db),
		FeeTransaction:  NewFeeTransactionRepository(db),
		AgentCredential: NewAgentCredentialRepository(db),
	}
}

// NewMemoryRepositories creates the in-process repository set used in tests
// and development runs without a database.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		PaymentRequest:  NewMemoryPaymentRequestRepository(),
		FeeTransaction:  NewMemoryFeeTransactionRepository(),
		AgentCredential: NewMemoryAgentCredentialRepository(),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetPaymentRequestRepository returns the payment request repository instance
func (f *Factory) GetPaymentRequestRepository() PaymentRequestRepository {
	return f.GetRepositories().PaymentRequest
}

// GetFeeTransactionRepository returns the fee ledger repository instance
func (f *Factory) GetFeeTransactionRepository() FeeTransactionRepository {
	return f.GetRepositories().FeeTransaction
}

// GetAgentCredentialRepository returns the credential repository instance
func (f *Factory) GetAgentCredentialRepository() AgentCredentialRepository {
	return f.GetRepositories().AgentCredential
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory
func GetGlobalFactory() *Factory {
	return globalFactory
}
