package repository

import (
	"database/sql"
	"time"

	"github.com/francopiloto/finance-api/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// nullableUser holds a LEFT JOIN'd users row; all fields are NULL for
// accounts that are not linked yet.
type nullableUser struct {
	id        sql.NullString
	name      sql.NullString
	email     sql.NullString
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

func (u nullableUser) toDomain() *domain.User {
	if !u.id.Valid {
		return nil
	}
	return &domain.User{
		ID:        u.id.String,
		Name:      u.name.String,
		Email:     u.email.String,
		CreatedAt: u.createdAt.Time,
		UpdatedAt: u.updatedAt.Time,
	}
}

func accountDest(a *domain.Account, providerUserID, email, avatarURL, username, userID *sql.NullString, lastLoginAt *sql.NullTime) []any {
	return []any{
		&a.ID, &a.Provider, providerUserID, email, avatarURL, username,
		&a.Verified, userID, lastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	}
}

func scanAccount(row rowScanner, extra ...any) (domain.Account, error) {
	var (
		account                                     domain.Account
		providerUserID, email, avatarURL, username  sql.NullString
		userID                                      sql.NullString
		lastLoginAt                                 sql.NullTime
	)

	dest := accountDest(&account, &providerUserID, &email, &avatarURL, &username, &userID, &lastLoginAt)
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Account{}, err
	}

	account.ProviderUserID = providerUserID.String
	account.Email = email.String
	account.AvatarURL = avatarURL.String
	account.Username = username.String
	account.UserID = userID.String
	if lastLoginAt.Valid {
		at := lastLoginAt.Time.UTC()
		account.LastLoginAt = &at
	}
	return account, nil
}

func scanAccountWithUser(row rowScanner, extra ...any) (domain.Account, error) {
	var user nullableUser
	dest := append([]any{&user.id, &user.name, &user.email, &user.createdAt, &user.updatedAt}, extra...)
	account, err := scanAccount(row, dest...)
	if err != nil {
		return domain.Account{}, err
	}
	account.User = user.toDomain()
	return account, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
