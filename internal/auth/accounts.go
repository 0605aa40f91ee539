package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for an unknown email or a wrong password.
var ErrBadCredentials = errors.New("invalid email or password")

// Account is a kiosk operator.
type Account struct {
	Email string
	Role  string
	hash  []byte
}

// Accounts is the static operator list loaded from configuration.
type Accounts map[string]Account

// ParseAccounts reads "email:role:bcrypt-hash" entries separated by commas.
func ParseAccounts(raw string) (Accounts, error) {
	accounts := Accounts{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("account %q: want email:role:hash", entry)
		}
		email := strings.ToLower(strings.TrimSpace(parts[0]))
		role := strings.TrimSpace(parts[1])
		if role != RoleAdmin && role != RoleStaff {
			return nil, fmt.Errorf("account %s: unknown role %q", email, role)
		}
		accounts[email] = Account{Email: email, Role: role, hash: []byte(strings.TrimSpace(parts[2]))}
	}
	return accounts, nil
}

// Authenticate checks a password and returns the matching account.
func (a Accounts) Authenticate(email, password string) (Account, error) {
	acc, ok := a[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Account{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Account{}, ErrBadCredentials
	}
	return acc, nil
}

// HashPassword hashes a password for the STAFF_ACCOUNTS setting.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
