// Package rowmap converts rows scanned by the repositories into domain
// models. Everything here is pure: no I/O, no logging. Tolerant decoders
// report what they had to discard through Result.Fault so that callers can
// log it.
package rowmap

import (
	"database/sql"
	"time"
)

// UserRow mirrors the users table. FavoriteIDs holds whatever the driver
// produced for the favorite_ids column: JSON text, bytes, or an already
// structured slice.
type UserRow struct {
	ID             string
	Name           sql.NullString
	Email          string
	Image          sql.NullString
	UserType       sql.NullString
	FavoriteIDs    any
	HashedPassword sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SessionRow struct {
	SessionToken string
	UserID       string
	Expires      time.Time
}

type ProductRow struct {
	ID          string
	Title       string
	Description string
	ImageSrc    string
	Category    string
	Latitude    float64
	Longitude   float64
	Price       float64
	UserID      string
	CreatedAt   time.Time
}

// ProductWithOwnerRow is a product joined with the owner's columns.
type ProductWithOwnerRow struct {
	ProductRow
	OwnerID    string
	OwnerName  sql.NullString
	OwnerEmail string
	OwnerImage sql.NullString
	OwnerType  sql.NullString
}

// UserConversationRow is one row of the aggregate conversation query.
// Conversations holds the raw aggregate payload.
type UserConversationRow struct {
	UserID        string
	UserName      sql.NullString
	UserEmail     string
	UserImage     sql.NullString
	Conversations any
}
