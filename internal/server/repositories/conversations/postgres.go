package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/rowmap"
)

// PostgresRepository implements conversation storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByPair(ctx context.Context, a, b string) (string, error) {
	query := `
		SELECT id FROM conversations
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		LIMIT 1
	`
	var id string
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// CreateIfAbsent relies on the unique index over the unordered pair: when
// another transaction inserted the pair first, nothing is returned and the
// caller re-reads with FindByPair.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, senderID, receiverID string) (string, bool, error) {
	query := `
		INSERT INTO conversations (sender_id, receiver_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, query, senderID, receiverID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("db error: %w", err)
	}
	return id, true, nil
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, m models.NewMessage) (string, error) {
	query := `
		INSERT INTO messages (text, image, sender_id, receiver_id, conversation_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query, m.Text, m.Image, m.SenderID, m.ReceiverID, m.ConversationID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// usersWithConversationsQuery builds every user's conversations, messages and
// participants as one JSON array. Key names match the models' JSON tags.
const usersWithConversationsQuery = `
	SELECT u.id, u.name, u.email, u.image,
	       COALESCE((
	           SELECT json_agg(json_build_object(
	                      'conversationId', c.id,
	                      'conversationName', c.name,
	                      'conversationCreatedAt', c.created_at,
	                      'messages', COALESCE((
	                          SELECT json_agg(json_build_object(
	                                     'messageId', m.id,
	                                     'text', m.text,
	                                     'image', m.image,
	                                     'createdAt', m.created_at,
	                                     'updatedAt', m.updated_at,
	                                     'sender', json_build_object('id', s.id, 'name', s.name, 'email', s.email, 'image', s.image),
	                                     'receiver', json_build_object('id', rc.id, 'name', rc.name, 'email', rc.email, 'image', rc.image)
	                                 ) ORDER BY m.created_at)
	                          FROM messages m
	                          JOIN users s ON s.id = m.sender_id
	                          JOIN users rc ON rc.id = m.receiver_id
	                          WHERE m.conversation_id = c.id
	                      ), '[]'::json),
	                      'users', COALESCE((
	                          SELECT json_agg(json_build_object('id', p.id, 'name', p.name, 'email', p.email, 'image', p.image))
	                          FROM users p
	                          WHERE p.id IN (c.sender_id, c.receiver_id)
	                      ), '[]'::json)
	                  ) ORDER BY c.created_at DESC)
	           FROM conversations c
	           WHERE u.id IN (c.sender_id, c.receiver_id)
	       ), '[]'::json) AS conversations
	FROM users u
	ORDER BY u.created_at
`

// ListUsersWithConversations returns one row per user. The conversations
// column is handed over undecoded.
func (r *PostgresRepository) ListUsersWithConversations(ctx context.Context) ([]rowmap.UserConversationRow, error) {
	rows, err := r.db.QueryContext(ctx, usersWithConversationsQuery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []rowmap.UserConversationRow{}
	for rows.Next() {
		var (
			item rowmap.UserConversationRow
			raw  []byte
		)
		if err := rows.Scan(&item.UserID, &item.UserName, &item.UserEmail, &item.UserImage, &raw); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if raw != nil {
			item.Conversations = raw
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
