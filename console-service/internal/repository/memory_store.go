package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/eaglebank/console/shared/errs"
	"github.com/eaglebank/console/shared/models"
)

// MemoryAccountStore is an in-process AccountStore. It enforces the same
// login uniqueness as the SQL schema and rolls back failed transactions.
type MemoryAccountStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	accounts map[string]models.Account
	order    []string
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]models.Account)}
}

// Create inserts a new account.
func (s *MemoryAccountStore) Create(_ context.Context, a models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.UserID == "" {
		return fmt.Errorf("create account: %w", errs.ErrInvalidParams)
	}
	if _, ok := s.accounts[a.UserID]; ok {
		return fmt.Errorf("account %s already exists", a.UserID)
	}
	if s.userNameOwner(a.UserName) != "" {
		return errs.ErrUserNameTaken
	}
	s.accounts[a.UserID] = a
	s.order = append(s.order, a.UserID)
	return nil
}

// Delete removes an account, as the account lifecycle outside the console does.
func (s *MemoryAccountStore) Delete(_ context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[userID]; !ok {
		return
	}
	delete(s.accounts, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryAccountStore) userNameOwner(userName string) string {
	for id, a := range s.accounts {
		if a.UserName == userName {
			return id
		}
	}
	return ""
}

func (s *MemoryAccountStore) FindByID(_ context.Context, userID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return &a, nil
}

func (s *MemoryAccountStore) FindByUserName(_ context.Context, userName string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.userNameOwner(userName)
	if id == "" {
		return nil, errs.ErrAccountNotFound
	}
	a := s.accounts[id]
	return &a, nil
}

func (s *MemoryAccountStore) List(_ context.Context, limit, offset int) ([]models.AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AccountSummary, 0)
	for i := offset; i < len(s.order) && len(out) < limit; i++ {
		a := s.accounts[s.order[i]]
		out = append(out, models.AccountSummary{
			Name:     a.Name,
			UserID:   a.UserID,
			UserName: a.UserName,
			LastTime: a.LastTime,
			LastIP:   a.LastIP,
		})
	}
	return out, nil
}

// Update reports one affected row whenever the account exists, matching
// PostgreSQL's matched-row count for unchanged values.
func (s *MemoryAccountStore) Update(_ context.Context, userID string, upd models.AccountUpdate) (int64, error) {
	if upd.Empty() {
		return 0, fmt.Errorf("empty account update: %w", errs.ErrInvalidParams)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return 0, nil
	}
	if upd.UserName != nil {
		if owner := s.userNameOwner(*upd.UserName); owner != "" && owner != userID {
			return 0, errs.ErrUserNameTaken
		}
		a.UserName = *upd.UserName
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Password != nil {
		a.Password = *upd.Password
	}
	s.accounts[userID] = a
	return 1, nil
}

// WithTx serialises fn against other transactions and restores the prior
// state when fn fails.
func (s *MemoryAccountStore) WithTx(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(ctx, memoryTx{s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *MemoryAccountStore) snapshot() map[string]models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]models.Account, len(s.accounts))
	for k, v := range s.accounts {
		cp[k] = v
	}
	return cp
}

func (s *MemoryAccountStore) restore(accounts map[string]models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
}

// memoryTx is the store handed to WithTx callbacks; nested WithTx calls run
// inline instead of re-acquiring the transaction lock.
type memoryTx struct {
	*MemoryAccountStore
}

func (t memoryTx) WithTx(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error {
	return fn(ctx, t)
}
