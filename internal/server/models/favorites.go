package models

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// FavoriteIDs is a set of product ids kept sorted and free of duplicates.
// All mutators return a new value.
type FavoriteIDs []string

// NewFavoriteIDs builds a set from ids, dropping duplicates and empty strings.
func NewFavoriteIDs(ids ...string) FavoriteIDs {
	out := make(FavoriteIDs, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (f FavoriteIDs) Contains(id string) bool {
	_, found := slices.BinarySearch(f, id)
	return found
}

// Add returns the set with id included. Adding a present id is a no-op.
func (f FavoriteIDs) Add(id string) FavoriteIDs {
	return NewFavoriteIDs(append(slices.Clone(f), id)...)
}

// Remove returns the set without id. Removing an absent id is a no-op.
func (f FavoriteIDs) Remove(id string) FavoriteIDs {
	out := make(FavoriteIDs, 0, len(f))
	for _, v := range f {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// IsValidProductID reports whether id is syntactically a product id (UUID).
func IsValidProductID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Validate checks that every element is a syntactically valid product id.
func (f FavoriteIDs) Validate() error {
	for _, id := range f {
		if !IsValidProductID(id) {
			return fmt.Errorf("invalid product id %q", id)
		}
	}
	return nil
}
