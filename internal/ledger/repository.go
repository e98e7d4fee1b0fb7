// repository.go: cached, fault-tolerant access to the ledger
//
// Reads go through the cache first. On a miss the query runs under
// fortis.Execute with the repository breaker, retrying busy databases and
// falling back to the last value read successfully. Writes go through the
// breaker only and invalidate the derived views of the touched account.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package ledger

import (
	"context"
	goerrors "errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/agilira/fortis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCurrency is used when an account is created without one.
const DefaultCurrency = "EUR"

// Options configures a Repository. Every field is optional.
type Options struct {
	// Cache holds fresh reads. Default: fortis.DefaultConfig store.
	Cache *fortis.Store[any]

	// Snapshots holds the last value read for every key, served when the
	// database cannot be reached. Default: LRU store without TTL.
	Snapshots *fortis.Store[any]

	// Breaker protects every database call. Default: breaker "ledger-db".
	Breaker *fortis.CircuitBreaker

	// Runner applies the recovery strategies. Default: runner with Logger.
	Runner *fortis.Runner

	// Logger for repository events. Default: fortis.NoOpLogger.
	Logger fortis.Logger

	// MaxRetries and InitialDelay bound retries of busy reads.
	MaxRetries   int
	InitialDelay time.Duration
}

// Repository is the ledger data-access layer.
type Repository struct {
	db        *gorm.DB
	cache     *fortis.Store[any]
	snapshots *fortis.Store[any]
	breaker   *fortis.CircuitBreaker
	runner    *fortis.Runner
	logger    fortis.Logger

	maxRetries   int
	initialDelay time.Duration

	// gen counts invalidations. A read only fills the cache if no
	// invalidation ran while its query was in flight.
	mu  sync.RWMutex
	gen uint64
}

// NewRepository creates a repository over db.
func NewRepository(db *gorm.DB, opts Options) *Repository {
	if opts.Logger == nil {
		opts.Logger = fortis.NoOpLogger{}
	}
	if opts.Cache == nil {
		cfg := fortis.DefaultConfig()
		cfg.Logger = opts.Logger
		opts.Cache = fortis.NewStore[any](cfg)
	}
	if opts.Snapshots == nil {
		opts.Snapshots = fortis.NewStore[any](fortis.Config{
			MaxSize:        10 * fortis.DefaultMaxSize,
			DefaultTTL:     0,
			EvictionPolicy: fortis.PolicyLRU,
			Logger:         opts.Logger,
		})
	}
	if opts.Breaker == nil {
		opts.Breaker = fortis.NewCircuitBreaker(fortis.BreakerConfig{
			Name:   "ledger-db",
			Logger: opts.Logger,
		})
	}
	if opts.Runner == nil {
		opts.Runner = fortis.NewRunner(fortis.RunnerConfig{Logger: opts.Logger})
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = fortis.DefaultMaxRetries
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = fortis.DefaultInitialDelay
	}

	return &Repository{
		db:           db,
		cache:        opts.Cache,
		snapshots:    opts.Snapshots,
		breaker:      opts.Breaker,
		runner:       opts.Runner,
		logger:       opts.Logger,
		maxRetries:   opts.MaxRetries,
		initialDelay: opts.InitialDelay,
	}
}

// Cache returns the store holding fresh reads.
func (r *Repository) Cache() *fortis.Store[any] { return r.cache }

// Breaker returns the breaker protecting the database.
func (r *Repository) Breaker() *fortis.CircuitBreaker { return r.breaker }

// Cache keys.
func accountKey(id string) string      { return fortis.Key("ledger", "account", id) }
func transactionKey(id string) string  { return fortis.Key("ledger", "transaction", id) }
func transactionsKey(id string) string { return fortis.Key("ledger", "transactions", id) }
func balanceKey(id string) string      { return fortis.Key("ledger", "balance", id) }

// viewsPattern matches the keys derived from an account's transactions.
func viewsPattern(accountID string) string {
	return "^ledger:(transactions|balance):" + regexp.QuoteMeta(accountID) + "$"
}

// =============================================================================
// READS
// =============================================================================

// Account returns the account with the given id.
func (r *Repository) Account(ctx context.Context, id string) (Account, error) {
	return read(ctx, r, accountKey(id), "account", id, func(db *gorm.DB) (Account, error) {
		var a Account
		err := db.First(&a, "id = ?", id).Error
		return a, err
	})
}

// Transaction returns the transaction with the given id.
func (r *Repository) Transaction(ctx context.Context, id string) (Transaction, error) {
	return read(ctx, r, transactionKey(id), "transaction", id, func(db *gorm.DB) (Transaction, error) {
		var t Transaction
		err := db.First(&t, "id = ?", id).Error
		return t, err
	})
}

// Transactions returns the transactions of an account, most recent first.
// The returned slice is a copy the caller may modify.
func (r *Repository) Transactions(ctx context.Context, accountID string) ([]Transaction, error) {
	if _, err := r.Account(ctx, accountID); err != nil {
		return nil, err
	}
	txns, err := read(ctx, r, transactionsKey(accountID), "account", accountID, func(db *gorm.DB) ([]Transaction, error) {
		txns := []Transaction{}
		err := db.Where("account_id = ?", accountID).
			Order("occurred_at DESC").Order("id").
			Find(&txns).Error
		return txns, err
	})
	if err != nil {
		return nil, err
	}
	return append([]Transaction(nil), txns...), nil
}

// Balance returns the sum of an account's transactions.
func (r *Repository) Balance(ctx context.Context, accountID string) (Balance, error) {
	account, err := r.Account(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	return read(ctx, r, balanceKey(accountID), "account", accountID, func(db *gorm.DB) (Balance, error) {
		var row struct {
			Total int64
			Count int64
		}
		err := db.Model(&Transaction{}).
			Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
			Where("account_id = ?", accountID).
			Scan(&row).Error
		return Balance{
			AccountID:    accountID,
			Currency:     account.Currency,
			Amount:       row.Total,
			Transactions: row.Count,
		}, err
	})
}

// lookup is the outcome of a read that may legitimately find nothing.
type lookup[T any] struct {
	value T
	found bool
	stale bool
}

// read serves key from the cache or runs query under Execute. Successful
// reads refresh both the cache and the snapshot store, unless a write
// invalidated entries while the query ran. Snapshot hits are returned but
// not cached.
func read[T any](ctx context.Context, r *Repository, key, entity, id string, query func(db *gorm.DB) (T, error)) (T, error) {
	var zero T
	if v, ok := r.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	gen := r.generation()

	res, err := fortis.Execute(ctx, r.runner, func(ctx context.Context) (lookup[T], error) {
		v, err := query(r.db.WithContext(ctx))
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return lookup[T]{}, nil
		}
		if err != nil {
			return lookup[T]{}, storageError("read", err)
		}
		return lookup[T]{value: v, found: true}, nil
	}, fortis.ExecOptions[lookup[T]]{
		Breaker:      r.breaker,
		MaxRetries:   r.maxRetries,
		InitialDelay: r.initialDelay,
		Fallback: func(ctx context.Context) (lookup[T], error) {
			if v, ok := r.snapshots.Get(key); ok {
				if t, ok := v.(T); ok {
					r.logger.Warn("serving snapshot", "key", key)
					return lookup[T]{value: t, found: true, stale: true}, nil
				}
			}
			return lookup[T]{}, errNoSnapshot(key)
		},
	})
	if err != nil {
		return zero, err
	}
	if !res.found {
		return zero, notFound(entity, id)
	}

	if !res.stale {
		r.fill(gen, key, res.value)
	}
	return res.value, nil
}

func (r *Repository) generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// fill caches value under key if no invalidation happened since gen.
func (r *Repository) fill(gen uint64, key string, value any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.gen != gen {
		r.logger.Debug("skipping cache fill after invalidation", "key", key)
		return false
	}
	_ = r.cache.Put(key, value)
	_ = r.snapshots.Put(key, value)
	return true
}

// =============================================================================
// WRITES
// =============================================================================

// CreateAccount stores a new account. An empty currency defaults to EUR.
func (r *Repository) CreateAccount(ctx context.Context, name, currency string) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, invalidInput("name", name)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Account{}, invalidInput("currency", currency)
	}

	account := Account{
		ID:        uuid.NewString(),
		Name:      name,
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.write(ctx, "create_account", func(db *gorm.DB) error {
		return db.Create(&account).Error
	}); err != nil {
		return Account{}, err
	}

	_ = r.cache.Put(accountKey(account.ID), account)
	r.logger.Info("account created", "account_id", account.ID)
	return account, nil
}

// AddTransaction records a movement on an existing account and drops the
// account's cached transaction list and balance.
func (r *Repository) AddTransaction(ctx context.Context, accountID string, in NewTransaction) (Transaction, error) {
	if in.Amount == 0 {
		return Transaction{}, invalidInput("amount", in.Amount)
	}
	if _, err := r.Account(ctx, accountID); err != nil {
		return Transaction{}, err
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now()
	}

	txn := Transaction{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Amount:     in.Amount,
		Category:   strings.TrimSpace(in.Category),
		Note:       in.Note,
		OccurredAt: in.OccurredAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.write(ctx, "add_transaction", func(db *gorm.DB) error {
		return db.Create(&txn).Error
	}); err != nil {
		return Transaction{}, err
	}

	r.invalidateViews(accountID)
	_ = r.cache.Put(transactionKey(txn.ID), txn)
	return txn, nil
}

// DeleteTransaction removes a transaction and drops the views of its account.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	txn, err := r.Transaction(ctx, id)
	if err != nil {
		return err
	}

	var affected int64
	if err := r.write(ctx, "delete_transaction", func(db *gorm.DB) error {
		res := db.Delete(&Transaction{}, "id = ?", id)
		affected = res.RowsAffected
		return res.Error
	}); err != nil {
		return err
	}

	r.invalidateViews(txn.AccountID, transactionKey(id))
	if affected == 0 {
		return notFound("transaction", id)
	}
	return nil
}

// Invalidate drops every cached key matching pattern and returns how many
// were removed.
func (r *Repository) Invalidate(pattern string) (int, error) {
	return r.cache.InvalidatePattern(pattern)
}

func (r *Repository) write(ctx context.Context, operation string, exec func(db *gorm.DB) error) error {
	_, err := fortis.HandleWithCircuitBreaker(ctx, r.runner, func(ctx context.Context) (struct{}, error) {
		if err := exec(r.db.WithContext(ctx)); err != nil {
			return struct{}{}, storageError(operation, err)
		}
		return struct{}{}, nil
	}, r.breaker)
	return err
}

// invalidateViews drops the derived views of an account along with keys.
// Snapshots are dropped too since they no longer describe the account.
func (r *Repository) invalidateViews(accountID string, keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++

	for _, key := range keys {
		r.cache.Remove(key)
		r.snapshots.Remove(key)
	}
	pattern := viewsPattern(accountID)
	removed, err := r.cache.InvalidatePattern(pattern)
	if err != nil {
		r.logger.Error("invalidation failed", "pattern", pattern, "error", err)
		return
	}
	_, _ = r.snapshots.InvalidatePattern(pattern)
	r.logger.Debug("views invalidated", "account_id", accountID, "removed", removed)
}
