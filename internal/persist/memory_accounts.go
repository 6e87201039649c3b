package persist

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MemoryAccounts is an in-process account store used when no database is
// configured. Accounts live until restart.
type MemoryAccounts struct {
	mu         sync.Mutex
	byName     map[string]*AccountRow
	nextUID    uint32
	autoCreate bool
	cost       int
}

func NewMemoryAccounts(autoCreate bool) *MemoryAccounts {
	return &MemoryAccounts{
		byName:     make(map[string]*AccountRow),
		nextUID:    10000,
		autoCreate: autoCreate,
		cost:       bcrypt.DefaultCost,
	}
}

// Authenticate resolves name and token to a uid.
func (m *MemoryAccounts) Authenticate(ctx context.Context, name, token string) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byName[name]
	if !ok {
		if !m.autoCreate {
			return 0, ErrVerifyFailed
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(token), m.cost)
		if err != nil {
			return 0, err
		}
		m.nextUID++
		row = &AccountRow{UID: m.nextUID, Name: name, TokenHash: string(hash)}
		m.byName[name] = row
		return row.UID, nil
	}
	if row.Banned || !validToken(row.TokenHash, token) {
		return 0, ErrVerifyFailed
	}
	return row.UID, nil
}

// Ban blocks further logins of name.
func (m *MemoryAccounts) Ban(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.byName[name]; ok {
		row.Banned = true
	}
}
