package storage

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"datelink/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// newUsersChannel is the Redis Pub/Sub channel carrying registration
// announcements to every running instance.
const newUsersChannel = "users:new"

// SaveMessage persists a direct message. The BeforeCreate hook fills the UUID,
// so msg.ID is usable right after this returns.
func (s *Service) SaveMessage(msg *models.Message) error {
	if msg.Type == "" {
		msg.Type = "text"
	}
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message from %s to %s: %v", msg.SenderID, msg.ReceiverID, err)
		return err
	}
	return nil
}

// SaveMediaFile records the stored file behind a media message.
func (s *Service) SaveMediaFile(file *models.MediaFile) error {
	return s.DB.Create(file).Error
}

// conversationRow is the scan target for the conversation listing query.
type conversationRow struct {
	OtherID       string
	LastID        string
	Username      string
	PhotoURL      string
	Gender        string
	Age           int
	MeetingType   string
	Description   string
	LastContent   string
	LastType      string
	LastSenderID  string
	LastIsRead    bool
	LastCreatedAt time.Time
	UnreadCount   int
}

// ListConversations returns one summary per counterpart the user has
// exchanged at least one message with, newest conversation first.
//
// The list is computed from the messages table alone: for every unordered
// sender/receiver pair the newest message wins (ties broken by message id),
// and the unread count is the number of still-unread messages the counterpart
// sent to the requesting user.
func (s *Service) ListConversations(userID string) ([]models.ConversationSummary, error) {
	rawSQL := `
        WITH last_messages AS (
            SELECT DISTINCT ON (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id))
                id, sender_id, receiver_id, content, type, is_read, created_at
            FROM messages
            WHERE sender_id = ? OR receiver_id = ?
            ORDER BY LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id),
                     created_at DESC, id DESC
        ),
        unread AS (
            SELECT sender_id, COUNT(*) AS unread_count
            FROM messages
            WHERE receiver_id = ? AND is_read = FALSE
            GROUP BY sender_id
        )
        SELECT
            u.id            AS other_id,
            lm.id           AS last_id,
            u.username      AS username,
            u.photo_url     AS photo_url,
            u.gender        AS gender,
            u.age           AS age,
            u.meeting_type  AS meeting_type,
            u.description   AS description,
            lm.content      AS last_content,
            lm.type         AS last_type,
            lm.sender_id    AS last_sender_id,
            lm.is_read      AS last_is_read,
            lm.created_at   AS last_created_at,
            COALESCE(un.unread_count, 0) AS unread_count
        FROM last_messages lm
        JOIN users u
            ON u.id = CASE WHEN lm.sender_id = ? THEN lm.receiver_id ELSE lm.sender_id END
        LEFT JOIN unread un ON un.sender_id = u.id
    `

	var rows []conversationRow
	if err := s.DB.Raw(rawSQL, userID, userID, userID, userID).Scan(&rows).Error; err != nil {
		log.Printf("ERROR: Failed to list conversations for %s: %v", userID, err)
		return nil, err
	}

	return buildSummaries(rows), nil
}

// buildSummaries orders the per-counterpart rows newest conversation first,
// breaking equal timestamps by message id, and shapes them for the API.
func buildSummaries(rows []conversationRow) []models.ConversationSummary {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].LastCreatedAt.Equal(rows[j].LastCreatedAt) {
			return rows[i].LastCreatedAt.After(rows[j].LastCreatedAt)
		}
		return rows[i].LastID > rows[j].LastID
	})

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, models.ConversationSummary{
			OtherUser: models.PublicProfile{
				ID:          row.OtherID,
				Username:    row.Username,
				PhotoURL:    row.PhotoURL,
				Gender:      row.Gender,
				Age:         row.Age,
				MeetingType: row.MeetingType,
				Description: row.Description,
			},
			LastMessage: &models.LastMessage{
				Content:   row.LastContent,
				Type:      row.LastType,
				SenderID:  row.LastSenderID,
				IsRead:    row.LastIsRead,
				CreatedAt: row.LastCreatedAt,
			},
			UnreadCount: row.UnreadCount,
		})
	}
	return summaries
}

// GetConversation returns one page of the message history between two users in
// chronological order and, in the same transaction, marks everything the
// counterpart sent to the requesting user as read. Marking is idempotent: the
// read flag only ever moves from false to true.
//
// hasMore is the usual offset-pagination approximation: true iff the page came
// back full.
func (s *Service) GetConversation(userID, otherUserID string, page, pageSize int) ([]models.Message, bool, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var messages []models.Message
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherUserID, userID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}

		return tx.
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				userID, otherUserID, otherUserID, userID).
			Order("created_at DESC, id DESC").
			Limit(pageSize).
			Offset(offset).
			Find(&messages).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to load conversation %s/%s: %v", userID, otherUserID, err)
		return nil, false, err
	}

	shaped, hasMore := shapeConversationPage(messages, otherUserID, pageSize)
	return shaped, hasMore, nil
}

// shapeConversationPage turns a newest-first page into chronological order and
// marks the counterpart's messages read, matching the flip the surrounding
// transaction performed. hasMore is true iff the page came back full.
func shapeConversationPage(messages []models.Message, otherUserID string, pageSize int) ([]models.Message, bool) {
	for i := range messages {
		if messages[i].SenderID == otherUserID {
			messages[i].IsRead = true
		}
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, len(messages) == pageSize
}

// PublishNewUser announces a registration on the Pub/Sub channel so every
// instance can notify the sessions watching the new-users room.
func (s *Service) PublishNewUser(user *models.User) error {
	payload, err := json.Marshal(user.Public())
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, newUsersChannel, payload).Err()
}

// SubscribeNewUsers subscribes to the registration announcement channel.
func (s *Service) SubscribeNewUsers() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, newUsersChannel)
}
