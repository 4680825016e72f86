package fakeuserrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
	"github.com/okanassist/okanassist-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo keeps users in memory. Records are copied in and out so callers never share
// state with the repo.
type FakeUserRepo struct {
	users     map[string]users.User
	emailIds  map[string]string // email to user id
	googleIds map[string]string // google sub to user id
	lock      sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[string]users.User),
		emailIds:  make(map[string]string),
		googleIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormalizeEmail(user.Email)

	if previous, ok := ur.users[user.ID]; ok {
		delete(ur.emailIds, previous.Email)
		if previous.GoogleSub != "" {
			delete(ur.googleIds, previous.GoogleSub)
		}
	}

	ur.users[user.ID] = *user
	ur.emailIds[user.Email] = user.ID
	if user.GoogleSub != "" {
		ur.googleIds[user.GoogleSub] = user.ID
	}
	return nil
}

func (ur *FakeUserRepo) Delete(email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email = users.NormalizeEmail(email)
	userID, ok := ur.emailIds[email]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	delete(ur.emailIds, email)

	user, ok := ur.users[userID]
	if !ok {
		return nil
	}
	if user.GoogleSub != "" {
		delete(ur.googleIds, user.GoogleSub)
	}
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	return ur.copyOf(userID)
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) GetByGoogleSub(sub string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.googleIds[sub]
	if !ok || sub == "" {
		return nil, autherrors.ErrUserNotFound
	}
	return ur.copyOf(userID)
}

func (ur *FakeUserRepo) SetVerified(email string, verified bool) error {
	return ur.update(email, func(u *users.User) { u.Verified = verified })
}

func (ur *FakeUserRepo) SetLastLogin(email string, at time.Time) error {
	return ur.update(email, func(u *users.User) { u.LastLogin = at })
}

func (ur *FakeUserRepo) update(email string, fn func(*users.User)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	user := ur.users[userID]
	fn(&user)
	ur.users[userID] = user
	return nil
}

// copyOf must be called with the lock held.
func (ur *FakeUserRepo) copyOf(id string) (*users.User, error) {
	user, ok := ur.users[id]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	return &user, nil
}
