package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eaglebank/console/shared/errs"
	"github.com/eaglebank/console/shared/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// AccountStore is the persistence boundary for console accounts.
type AccountStore interface {
	// FindByID returns errs.ErrAccountNotFound when no row matches.
	FindByID(ctx context.Context, userID string) (*models.Account, error)
	// FindByUserName returns errs.ErrAccountNotFound when no row matches.
	FindByUserName(ctx context.Context, userName string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.AccountSummary, error)
	// Update writes the non-nil fields of upd to the account keyed by userID
	// and reports the affected-row count.
	Update(ctx context.Context, userID string, upd models.AccountUpdate) (int64, error)
	// WithTx runs fn against a store bound to a single transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error
}

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresAccountStore is the PostgreSQL AccountStore. Inside WithTx the
// single-row lookups take row locks (SELECT ... FOR UPDATE).
type PostgresAccountStore struct {
	db   *sql.DB
	q    DBTX
	inTx bool
}

func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db, q: db}
}

const accountColumns = `user_id, name, user_name, password, access, avator, last_time, last_ip`

func (s *PostgresAccountStore) lockClause() string {
	if s.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func (s *PostgresAccountStore) FindByID(ctx context.Context, userID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE user_id = $1` + s.lockClause()
	return s.findOne(ctx, query, userID)
}

func (s *PostgresAccountStore) FindByUserName(ctx context.Context, userName string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE user_name = $1` + s.lockClause()
	return s.findOne(ctx, query, userName)
}

func (s *PostgresAccountStore) findOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	var (
		a        models.Account
		avator   sql.NullString
		lastTime sql.NullTime
		lastIP   sql.NullString
	)
	err := s.q.QueryRowContext(ctx, query, arg).Scan(
		&a.UserID, &a.Name, &a.UserName, &a.Password, &a.Access, &avator, &lastTime, &lastIP,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.Avator = avator.String
	a.LastIP = lastIP.String
	if lastTime.Valid {
		t := lastTime.Time
		a.LastTime = &t
	}
	return &a, nil
}

func (s *PostgresAccountStore) List(ctx context.Context, limit, offset int) ([]models.AccountSummary, error) {
	query := `
		SELECT name, user_id, user_name, last_time, last_ip
		FROM admin_users
		ORDER BY created_at, user_id
		LIMIT $1 OFFSET $2
	`
	rows, err := s.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.AccountSummary, 0)
	for rows.Next() {
		var (
			a        models.AccountSummary
			lastTime sql.NullTime
			lastIP   sql.NullString
		)
		if err := rows.Scan(&a.Name, &a.UserID, &a.UserName, &lastTime, &lastIP); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.LastIP = lastIP.String
		if lastTime.Valid {
			t := lastTime.Time
			a.LastTime = &t
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

func (s *PostgresAccountStore) Update(ctx context.Context, userID string, upd models.AccountUpdate) (int64, error) {
	if upd.Empty() {
		return 0, fmt.Errorf("empty account update: %w", errs.ErrInvalidParams)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", upd.Name)
	add("user_name", upd.UserName)
	add("password", upd.Password)
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE admin_users SET %s WHERE user_id = $%d`, strings.Join(sets, ", "), len(args))
	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, errs.ErrUserNameTaken
		}
		return 0, fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows, nil
}

// WithTx begins a transaction, runs fn with a transaction-bound store, and
// commits on success or rolls back on error or panic. Panics are rethrown.
// Calling WithTx on a store that is already transactional reuses it.
func (s *PostgresAccountStore) WithTx(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			var pqErr *pq.Error
			if errors.As(cerr, &pqErr) && pqErr.Code == uniqueViolation {
				err = errs.ErrUserNameTaken
				return
			}
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(ctx, &PostgresAccountStore{db: s.db, q: tx, inTx: true})
}
