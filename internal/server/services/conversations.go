package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// ConversationService manages two-party conversations and their messages.
type ConversationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewConversationService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ConversationService {
	return &ConversationService{db: db, repomanager: m, logger: logger.With("module", "conversations")}
}

// FindOrCreateConversation returns the id of the conversation between a and
// b, creating it when there is none. The pair is unordered, and concurrent
// callers for the same pair get the same id.
func (s *ConversationService) FindOrCreateConversation(ctx context.Context, a, b string) (string, error) {
	switch {
	case a == "" || b == "":
		return "", invalid("both participants are required")
	case a == b:
		return "", invalid("a conversation needs two different users")
	case !isUUID(a) || !isUUID(b):
		return "", invalid("unknown participant")
	}

	repo := s.repomanager.Conversations(s.db)

	id, err := repo.FindByPair(ctx, a, b)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", storageFault(ctx, s.logger, "conversation lookup", err)
	}

	id, created, err := repo.CreateIfAbsent(ctx, a, b)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return "", invalid("unknown participant")
		}
		return "", storageFault(ctx, s.logger, "conversation create", err)
	}
	if created {
		s.logger.Debug(ctx, "conversation created", "conversation_id", id)
		return id, nil
	}

	// Lost the race to a concurrent insert for the same pair.
	id, err = repo.FindByPair(ctx, a, b)
	if err != nil {
		return "", storageFault(ctx, s.logger, "conversation lookup", err)
	}
	return id, nil
}

// CreateMessage stores m and returns its id.
func (s *ConversationService) CreateMessage(ctx context.Context, m models.NewMessage) (string, error) {
	switch {
	case (m.Text == nil || *m.Text == "") && (m.Image == nil || *m.Image == ""):
		return "", invalid("message needs text or an image")
	case m.SenderID == "" || m.ReceiverID == "":
		return "", invalid("sender and receiver are required")
	case m.ConversationID == "":
		return "", invalid("conversation id is required")
	case !isUUID(m.SenderID) || !isUUID(m.ReceiverID) || !isUUID(m.ConversationID):
		return "", invalid("unknown sender, receiver or conversation")
	}

	id, err := s.repomanager.Conversations(s.db).CreateMessage(ctx, m)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return "", invalid("unknown sender, receiver or conversation")
		}
		return "", storageFault(ctx, s.logger, "message create", err)
	}
	return id, nil
}

// ListUsersWithConversations returns every user with their conversations,
// messages and participants. A user whose aggregate cannot be decoded is
// returned with no conversations; the fault is logged.
func (s *ConversationService) ListUsersWithConversations(ctx context.Context) ([]models.UserWithConversations, error) {
	rows, err := s.repomanager.Conversations(s.db).ListUsersWithConversations(ctx)
	if err != nil {
		return nil, storageFault(ctx, s.logger, "conversation aggregate", err)
	}

	out := make([]models.UserWithConversations, 0, len(rows))
	for _, r := range rows {
		u, fault := rowmap.ToUserWithConversations(r)
		if fault != nil {
			s.logger.Warn(ctx, "conversation payload discarded", "user_id", r.UserID, "error", fault)
		}
		out = append(out, u)
	}
	return out, nil
}
