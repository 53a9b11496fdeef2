package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eaglebank/console/console-service/internal/repository"
	"github.com/eaglebank/console/shared/cqrs"
	"github.com/eaglebank/console/shared/errs"
	"github.com/eaglebank/console/shared/events"
	"github.com/eaglebank/console/shared/models"
	"github.com/eaglebank/console/shared/utils"
)

// AccountCommandService applies account mutations to the store and keeps the
// profile read model in sync.
type AccountCommandService struct {
	store    repository.AccountStore
	readRepo *repository.AccountReadRepository
	hasher   utils.CredentialHasher
	auditor  *events.Auditor
}

func NewAccountCommandService(
	store repository.AccountStore,
	readRepo *repository.AccountReadRepository,
	hasher utils.CredentialHasher,
	auditor *events.Auditor,
) *AccountCommandService {
	return &AccountCommandService{
		store:    store,
		readRepo: readRepo,
		hasher:   hasher,
		auditor:  auditor,
	}
}

// UpdateProfile changes the caller's own name and login. The login must not
// belong to another account; keeping one's current login is allowed.
func (s *AccountCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) error {
	if cmd.Name == "" || cmd.UserName == "" {
		return errs.ErrInvalidParams
	}
	userID := cmd.Principal.UserID

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.AccountStore) error {
		existing, err := tx.FindByUserName(ctx, cmd.UserName)
		switch {
		case err == nil && existing.UserID != userID:
			return errs.ErrUserNameTaken
		case err != nil && !errors.Is(err, errs.ErrAccountNotFound):
			return err
		}

		affected, err := tx.Update(ctx, userID, models.AccountUpdate{
			Name:     &cmd.Name,
			UserName: &cmd.UserName,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return errs.ErrNotModified
		}
		return nil
	})

	s.auditor.Record(ctx, events.LogUserUpdateInfo, "update_profile", userID, map[string]any{
		"userName": cmd.UserName,
	}, err)
	if err != nil {
		return err
	}
	s.readRepo.InvalidateProfile(ctx, userID)
	return nil
}

// ChangePassword replaces the caller's password once the current one is proven.
func (s *AccountCommandService) ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error {
	if cmd.Password == "" || cmd.NewPassword == "" {
		return errs.ErrInvalidParams
	}
	userID := cmd.Principal.UserID

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.AccountStore) error {
		account, err := tx.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !s.hasher.Check(cmd.Password, account.Password) {
			return errs.ErrOldPasswordIncorrect
		}

		hashed, err := s.hasher.Hash(cmd.NewPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		affected, err := tx.Update(ctx, userID, models.AccountUpdate{Password: &hashed})
		if err != nil {
			return err
		}
		if affected == 0 {
			return errs.ErrNotModified
		}
		return nil
	})

	s.auditor.Record(ctx, events.LogUserCheckPassword, "change_password", userID, nil, err)
	return err
}

// AdminUpdateAccount lets a super-admin edit any account. The password is
// only replaced when one is supplied. The login is not pre-checked for
// uniqueness here; a duplicate is still refused by the store.
func (s *AccountCommandService) AdminUpdateAccount(ctx context.Context, cmd cqrs.AdminUpdateAccountCommand) error {
	if !cmd.Principal.IsAdmin() {
		s.auditor.Record(ctx, events.LogUserUpdateInfo, "admin_update_account", cmd.Principal.UserID, map[string]any{
			"target": cmd.UserID,
		}, errs.ErrForbidden)
		return errs.ErrForbidden
	}
	target := strings.TrimSpace(cmd.UserID)
	if target == "" || cmd.Name == "" || cmd.UserName == "" {
		return errs.ErrInvalidParams
	}

	upd := models.AccountUpdate{Name: &cmd.Name, UserName: &cmd.UserName}
	if cmd.Password != "" {
		hashed, err := s.hasher.Hash(cmd.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		upd.Password = &hashed
	}

	affected, err := s.store.Update(ctx, target, upd)
	if err == nil && affected == 0 {
		err = errs.ErrNotModified
	}

	s.auditor.Record(ctx, events.LogUserUpdateInfo, "admin_update_account", cmd.Principal.UserID, map[string]any{
		"target":          target,
		"userName":        cmd.UserName,
		"passwordChanged": upd.Password != nil,
	}, err)
	if err != nil {
		return err
	}
	s.readRepo.InvalidateProfile(ctx, target)
	return nil
}
