package users

import "time"

type UserRepo interface {
	Upsert(user *User) error
	Delete(email string) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	GetByGoogleSub(sub string) (*User, error)
	SetVerified(email string, verified bool) error
	SetLastLogin(email string, at time.Time) error
}
