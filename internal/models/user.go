package models

import (
	"fmt"
	"time"
)

// DefaultUsername is the account every install starts with. The service is
// single-user and carries no credentials.
const DefaultUsername = "local"

// User represents the local studio account.
type User struct {
	id          string
	sequence    int
	username    string
	displayName string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewUser creates a User with the given sequence, username, and display name.
func NewUser(sequence int, username, displayName string) *User {
	now := time.Now()
	return &User{
		sequence:    sequence,
		username:    username,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (u *User) ID() string { return u.id }
func (u *User) Sequence() int { return u.sequence }
func (u *User) Username() string { return u.username }
func (u *User) DisplayName() string { return u.displayName }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string) { u.id = id }
func (u *User) SetDisplayName(name string) { u.displayName = name }
func (u *User) SetCreatedAt(t time.Time) { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time) { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// Validate checks that the user has a username.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}
