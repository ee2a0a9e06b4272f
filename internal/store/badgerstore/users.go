package badgerstore

import (
	"context"

	"catalog-service/internal/model"
)

type userStore struct {
	s    *Store
	docs *collection[model.User]
}

func (u *userStore) Insert(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = u.s.newID()
	}
	now := u.s.timestamp()
	user.CreatedAt, user.UpdatedAt = now, now
	return u.docs.insert(ctx, user.ID, user)
}

func (u *userStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.docs.get(ctx, id)
}

func (u *userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.docs.getBy(ctx, "email", normalizeEmail(email))
}

func (u *userStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.docs.getBy(ctx, "username", username)
}
