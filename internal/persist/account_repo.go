package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrVerifyFailed is returned when an account cannot be authenticated.
var ErrVerifyFailed = errors.New("account verification failed")

type AccountRow struct {
	UID        uint32     `db:"uid"`
	Name       string     `db:"name"`
	TokenHash  string     `db:"token_hash"`
	Banned     bool       `db:"banned"`
	CreatedAt  time.Time  `db:"created_at"`
	LastActive *time.Time `db:"last_active"`
}

// AccountRepo stores accounts in PostgreSQL.
type AccountRepo struct {
	db         *DB
	autoCreate bool
	cost       int
}

func NewAccountRepo(db *DB, autoCreate bool) *AccountRepo {
	return &AccountRepo{db: db, autoCreate: autoCreate, cost: bcrypt.DefaultCost}
}

// Load returns the account named name, or nil when there is none.
func (r *AccountRepo) Load(ctx context.Context, name string) (*AccountRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT uid, name, token_hash, banned, created_at, last_active
		 FROM accounts WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[AccountRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Create inserts a new account. When another server created the same name
// first, the existing row is returned and the caller verifies against it.
func (r *AccountRepo) Create(ctx context.Context, name, rawToken string) (row *AccountRow, created bool, err error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawToken), r.cost)
	if err != nil {
		return nil, false, err
	}
	now := time.Now()
	row = &AccountRow{
		Name:       name,
		TokenHash:  string(hash),
		CreatedAt:  now,
		LastActive: &now,
	}
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (name, token_hash, last_active)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING uid`,
		row.Name, row.TokenHash, row.LastActive,
	).Scan(&row.UID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.Load(ctx, name)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// Authenticate resolves an account name and token to a uid, creating the
// account on first sight when auto-create is on.
func (r *AccountRepo) Authenticate(ctx context.Context, name, token string) (uint32, error) {
	row, err := r.Load(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", name, err)
	}
	if row == nil {
		if !r.autoCreate {
			return 0, ErrVerifyFailed
		}
		var created bool
		row, created, err = r.Create(ctx, name, token)
		if err != nil {
			return 0, fmt.Errorf("create account %s: %w", name, err)
		}
		if created {
			return row.UID, nil
		}
		if row == nil {
			return 0, ErrVerifyFailed
		}
	}
	if row.Banned || !validToken(row.TokenHash, token) {
		return 0, ErrVerifyFailed
	}
	if _, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_active = NOW() WHERE uid = $1`, row.UID,
	); err != nil {
		return 0, fmt.Errorf("touch account %s: %w", name, err)
	}
	return row.UID, nil
}

func validToken(hash, rawToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawToken)) == nil
}
