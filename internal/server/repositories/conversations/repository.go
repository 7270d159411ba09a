// Package conversations declares the repository contract for two-party
// conversations and their messages.
package conversations

import (
	"context"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

type Repository interface {
	// FindByPair returns the id of the conversation between a and b in either
	// order, or common.ErrorNotFound.
	FindByPair(ctx context.Context, a, b string) (string, error)
	// CreateIfAbsent inserts a conversation for the pair. created is false
	// when a concurrent insert for the same unordered pair won.
	CreateIfAbsent(ctx context.Context, senderID, receiverID string) (id string, created bool, err error)
	CreateMessage(ctx context.Context, m models.NewMessage) (string, error)
	ListUsersWithConversations(ctx context.Context) ([]rowmap.UserConversationRow, error)
}
