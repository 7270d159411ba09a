// Package models defines server-side data models persisted in the database
// and exchanged with handlers.
package models

import "time"

// User is the canonical user record.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Image       *string     `json:"image"`
	Role        string      `json:"role"`
	FavoriteIDs FavoriteIDs `json:"favoriteIds"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// UserSummary is the partial projection exposed as product owner, message
// sender/receiver and conversation participant.
type UserSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
	Role  string  `json:"role,omitempty"`
}

// Summary selects the summary projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image, Role: u.Role}
}

// AuthUser is only materialized on the credential verification path.
type AuthUser struct {
	User
	HashedPassword string `json:"-"`
}

// NewUser carries the fields accepted on user creation. Ids are always
// assigned by the database.
type NewUser struct {
	Name           string
	Email          string
	Image          *string
	Role           string
	HashedPassword string
}

// UserPatch lists the fields to change on an existing user.
type UserPatch struct {
	ID          string
	Name        Optional[string]
	Email       Optional[string]
	Image       Optional[*string]
	Role        Optional[string]
	FavoriteIDs Optional[FavoriteIDs]
}

// Empty reports whether no field was supplied.
func (p UserPatch) Empty() bool {
	return !p.Name.IsSet() && !p.Email.IsSet() && !p.Image.IsSet() && !p.Role.IsSet() && !p.FavoriteIDs.IsSet()
}
