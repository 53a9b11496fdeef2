package query

import (
	"context"
	"strings"

	"github.com/eaglebank/console/console-service/internal/repository"
	"github.com/eaglebank/console/shared/cqrs"
	"github.com/eaglebank/console/shared/errs"
	"github.com/eaglebank/console/shared/events"
	"github.com/eaglebank/console/shared/models"
	"github.com/eaglebank/console/shared/utils"
)

// ListPageSize is the fixed page size of ListAccounts.
const ListPageSize = 100

// AccountQueryService answers console reads. Profiles come from the Redis
// read model; credential checks and listings go to the store.
type AccountQueryService struct {
	store    repository.AccountStore
	readRepo *repository.AccountReadRepository
	hasher   utils.CredentialHasher
	auditor  *events.Auditor
}

func NewAccountQueryService(
	store repository.AccountStore,
	readRepo *repository.AccountReadRepository,
	hasher utils.CredentialHasher,
	auditor *events.Auditor,
) *AccountQueryService {
	return &AccountQueryService{
		store:    store,
		readRepo: readRepo,
		hasher:   hasher,
		auditor:  auditor,
	}
}

// GetProfile returns the profile of q.UserID, or of the caller when it is blank.
func (s *AccountQueryService) GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.ProfileView, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		userID = q.Principal.UserID
	}
	view, err := s.readRepo.GetProfile(ctx, userID)
	s.auditor.Record(ctx, events.LogUserSelect, "get_profile", q.Principal.UserID, map[string]any{"target": userID}, err)
	return view, err
}

// VerifyPassword returns nil on a match and errs.ErrPasswordMismatch otherwise.
func (s *AccountQueryService) VerifyPassword(ctx context.Context, q cqrs.VerifyPasswordQuery) error {
	if q.Password == "" {
		return errs.ErrInvalidParams
	}
	err := s.verify(ctx, q)
	s.auditor.Record(ctx, events.LogUserCheckPassword, "verify_password", q.Principal.UserID, nil, err)
	return err
}

func (s *AccountQueryService) verify(ctx context.Context, q cqrs.VerifyPasswordQuery) error {
	account, err := s.store.FindByID(ctx, q.Principal.UserID)
	if err != nil {
		return err
	}
	if !s.hasher.Check(q.Password, account.Password) {
		return errs.ErrPasswordMismatch
	}
	return nil
}

// ListAccounts returns the first ListPageSize accounts in storage order.
// The result is never nil.
func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountSummary, error) {
	accounts, err := s.store.List(ctx, ListPageSize, 0)
	s.auditor.Record(ctx, events.LogUserSelect, "list_accounts", q.Principal.UserID, map[string]any{"count": len(accounts)}, err)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.AccountSummary{}
	}
	return accounts, nil
}
