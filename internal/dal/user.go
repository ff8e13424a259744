package dal

import (
	"context"
	"errors"
	"fmt"
)

// ErrUserNotFound means no staff profile exists for the verified identity.
var ErrUserNotFound = errors.New("user profile not found")

// UserModel resolves staff roles from the users collection, keyed by the
// verified identity uid.
type UserModel struct {
	store Store
}

// NewUserModel creates a new user model instance.
func NewUserModel(store Store) *UserModel {
	return &UserModel{store: store}
}

// Save upserts a staff profile. Used by the seeding command; the service
// itself never writes to the users collection.
func (um *UserModel) Save(ctx context.Context, profile UserProfile) error {
	if profile.Role != RoleDoctor && profile.Role != RoleReceptionist {
		return fmt.Errorf("unknown role %q", profile.Role)
	}
	if err := um.store.Upsert(ctx, CollectionUsers, profile.UID, profile); err != nil {
		return fmt.Errorf("save user profile: %w", err)
	}
	return nil
}

// Role returns the staff role for a uid.
func (um *UserModel) Role(ctx context.Context, uid string) (string, error) {
	var profile UserProfile
	_, err := um.store.Get(ctx, CollectionUsers, uid, &profile)
	if errors.Is(err, ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user profile: %w", err)
	}
	return profile.Role, nil
}
