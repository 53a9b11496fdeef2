// Package service exposes the console account operations as one interface.
// Writes are served by internal/command, reads by internal/query.
package service

import (
	"context"

	"github.com/eaglebank/console/console-service/internal/command"
	"github.com/eaglebank/console/console-service/internal/query"
	"github.com/eaglebank/console/shared/cqrs"
	"github.com/eaglebank/console/shared/models"
)

// AccountService is every console account operation. Each call carries the
// caller's Principal inside its command or query.
type AccountService interface {
	GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.ProfileView, error)
	VerifyPassword(ctx context.Context, q cqrs.VerifyPasswordQuery) error
	UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) error
	ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error
	AdminUpdateAccount(ctx context.Context, cmd cqrs.AdminUpdateAccountCommand) error
	ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountSummary, error)
}

// Service joins the command and query sides.
type Service struct {
	*command.AccountCommandService
	*query.AccountQueryService
}

var _ AccountService = (*Service)(nil)

func New(commands *command.AccountCommandService, queries *query.AccountQueryService) *Service {
	return &Service{AccountCommandService: commands, AccountQueryService: queries}
}
