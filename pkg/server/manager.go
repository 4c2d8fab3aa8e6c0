package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/logging"
	"github.com/erain9/bookprogram/pkg/program"
	"github.com/rs/zerolog"
)

// AccountInfo contains metadata about an account created through this host
type AccountInfo struct {
	Name      string
	Backend   string
	Capacity  int
	CreatedAt time.Time
}

// AccountManager owns the state store and the processor running
// instructions against it
type AccountManager struct {
	mu              sync.RWMutex
	store           core.StateStore
	backend         string
	defaultCapacity int
	info            map[string]*AccountInfo
	processor       *program.Processor
}

// NewAccountManager creates a new AccountManager over store. Accounts are
// allocated with defaultCapacity bytes; 0 is unbounded.
func NewAccountManager(store core.StateStore, backend string, defaultCapacity int, opts ...program.Option) *AccountManager {
	return &AccountManager{
		store:           store,
		backend:         backend,
		defaultCapacity: defaultCapacity,
		info:            make(map[string]*AccountInfo),
		processor:       program.NewProcessor(store, opts...),
	}
}

// CreateAccount allocates an empty account
func (m *AccountManager) CreateAccount(ctx context.Context, name string) (*AccountInfo, error) {
	logger := logging.FromContext(ctx).With().Str("account", name).Logger()

	if err := m.store.Create(ctx, name, m.defaultCapacity); err != nil {
		if errors.Is(err, core.ErrAccountExists) {
			logger.Error().Msg("Account already exists")
		} else {
			logger.Error().Err(err).Msg("Failed to create account")
		}
		return nil, err
	}

	info := &AccountInfo{
		Name:      name,
		Backend:   m.backend,
		Capacity:  m.defaultCapacity,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.info[name] = info
	m.mu.Unlock()

	logger.Info().Str("backend", m.backend).Int("capacity", m.defaultCapacity).Msg("Created new account")
	return info, nil
}

// GetAccount retrieves the metadata of an account created by this manager
func (m *AccountManager) GetAccount(ctx context.Context, name string) (*AccountInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, exists := m.info[name]
	if !exists {
		logging.FromContext(ctx).Debug().Str("account", name).Msg("Account not found")
		return nil, core.ErrAccountNotFound
	}
	return info, nil
}

// DeleteAccount removes an account and its state
func (m *AccountManager) DeleteAccount(ctx context.Context, name string) error {
	logger := logging.FromContext(ctx).With().Str("account", name).Logger()

	if err := m.store.Delete(ctx, name); err != nil {
		logger.Debug().Err(err).Msg("Failed to delete account")
		return err
	}

	m.mu.Lock()
	delete(m.info, name)
	m.mu.Unlock()

	logger.Info().Msg("Deleted account")
	return nil
}

// ListAccounts returns the accounts created by this manager, sorted by name
func (m *AccountManager) ListAccounts(ctx context.Context) []*AccountInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*AccountInfo, 0, len(m.info))
	for _, info := range m.info {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	logging.FromContext(ctx).Debug().Int("count", len(result)).Msg("Listed accounts")
	return result
}

// GetState returns the raw state buffer of an account
func (m *AccountManager) GetState(ctx context.Context, name string) ([]byte, error) {
	state, err := m.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	LogAccountSummary(logging.FromContext(ctx), name, state)
	return state, nil
}

// Invoke runs one instruction against an account
func (m *AccountManager) Invoke(ctx context.Context, name string, data []byte, signer core.Trader) ([]byte, error) {
	return m.processor.Process(ctx, name, data, signer)
}

// Close closes the underlying store
func (m *AccountManager) Close() error {
	m.mu.Lock()
	m.info = make(map[string]*AccountInfo)
	m.mu.Unlock()

	return m.store.Close()
}

// LogAccountSummary logs the size and order counts of a state buffer
func LogAccountSummary(logger zerolog.Logger, name string, state []byte) {
	event := logger.Debug().Str("account", name).Int("state_bytes", len(state))

	book, err := core.DecodeOrderBook(state)
	if err != nil {
		event.Err(err).Msg("Account summary")
		return
	}
	event.
		Int("buy_orders", len(book.BuyOrders())).
		Int("sell_orders", len(book.SellOrders())).
		Msg("Account summary")
}
