package rowmap

import (
	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

func optString(valid bool, s string) *string {
	if !valid {
		return nil
	}
	return &s
}

func role(valid bool, s string) string {
	if !valid || s == "" {
		return common.DefaultRole
	}
	return s
}

// ToUser maps a users row. The returned fault is non-fatal: it reports a
// favorites payload that had to be replaced or trimmed, and user is complete
// either way.
func ToUser(row UserRow) (user models.User, fault error) {
	fav := DecodeFavorites(row.FavoriteIDs)
	return models.User{
		ID:          row.ID,
		Name:        row.Name.String,
		Email:       row.Email,
		Image:       optString(row.Image.Valid, row.Image.String),
		Role:        role(row.UserType.Valid, row.UserType.String),
		FavoriteIDs: fav.Value,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, fav.Fault
}

// ToAuthUser is ToUser plus the stored password hash.
func ToAuthUser(row UserRow) (user models.AuthUser, fault error) {
	u, fault := ToUser(row)
	return models.AuthUser{User: u, HashedPassword: row.HashedPassword.String}, fault
}

func ToSession(row SessionRow) models.Session {
	return models.Session{
		SessionToken: row.SessionToken,
		UserID:       row.UserID,
		Expires:      row.Expires,
	}
}

func ToProduct(row ProductRow) models.Product {
	return models.Product{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		ImageSrc:    row.ImageSrc,
		Category:    row.Category,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		Price:       row.Price,
		UserID:      row.UserID,
		CreatedAt:   row.CreatedAt,
	}
}

func ToProductWithOwner(row ProductWithOwnerRow) models.ProductWithOwner {
	return models.ProductWithOwner{
		Product: ToProduct(row.ProductRow),
		Owner: models.UserSummary{
			ID:    row.OwnerID,
			Name:  row.OwnerName.String,
			Email: row.OwnerEmail,
			Image: optString(row.OwnerImage.Valid, row.OwnerImage.String),
			Role:  role(row.OwnerType.Valid, row.OwnerType.String),
		},
	}
}

// ToUserWithConversations maps one aggregate row. As with ToUser, the fault
// only reports a payload that was replaced by an empty list.
func ToUserWithConversations(row UserConversationRow) (out models.UserWithConversations, fault error) {
	conv := DecodeConversations(row.Conversations)
	return models.UserWithConversations{
		ID:            row.UserID,
		Name:          row.UserName.String,
		Email:         row.UserEmail,
		Image:         optString(row.UserImage.Valid, row.UserImage.String),
		Conversations: conv.Value,
	}, conv.Fault
}
