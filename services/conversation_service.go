package services

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

// ConversationResolver canonicalizes user pairs into single conversation
// rows and owns all unread/preview accounting. Every send path goes
// through here so there is exactly one place that touches the counters.
type ConversationResolver interface {
	GetOrCreate(userA, userB uint) (*models.Conversation, error)
	FindByPair(userA, userB uint) (*models.Conversation, error)
	RecordMessage(conv *models.Conversation, msg *models.DirectMessage) error
	ResetUnread(conv *models.Conversation, readerID uint) error
	ListForUser(userID uint, page, pageSize int) ([]models.ConversationSummary, error)
	Summary(conv *models.Conversation, viewerID uint) (*models.ConversationSummary, error)
}

// conversationResolver struct
type conversationResolver struct {
	Config   *config.Config
	convRepo db.ConversationRepository
	authRepo db.AuthRepository
}

// NewConversationResolver creates a new instance of ConversationResolver
func NewConversationResolver(convRepo db.ConversationRepository, authRepo db.AuthRepository, conf *config.Config) ConversationResolver {
	return &conversationResolver{
		Config:   conf,
		convRepo: convRepo,
		authRepo: authRepo,
	}
}

// CanonicalPair returns the two user IDs in stored order.
func CanonicalPair(userA, userB uint) (low, high uint) {
	if userA < userB {
		return userA, userB
	}
	return userB, userA
}

// TruncatePreview cuts content longer than the preview limit to 197
// characters plus an ellipsis, so the stored preview is exactly 200.
func TruncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= models.PreviewLimit {
		return content
	}
	return string(runes[:models.PreviewLimit-3]) + "..."
}

func (r *conversationResolver) GetOrCreate(userA, userB uint) (*models.Conversation, error) {
	if userA == userB {
		return nil, errs.New("cannot start a conversation with yourself", http.StatusBadRequest)
	}
	low, high := CanonicalPair(userA, userB)
	return r.convRepo.GetOrCreate(low, high)
}

func (r *conversationResolver) FindByPair(userA, userB uint) (*models.Conversation, error) {
	low, high := CanonicalPair(userA, userB)
	return r.convRepo.FindByPair(low, high)
}

// RecordMessage stamps the preview and last-message time and bumps the
// receiver's unread counter. The increment is a store-side expression,
// never a read-modify-write here.
func (r *conversationResolver) RecordMessage(conv *models.Conversation, msg *models.DirectMessage) error {
	preview := TruncatePreview(msg.Content)
	receiverIsLow := msg.ReceiverID == conv.ParticipantLowID
	if err := r.convRepo.RecordMessage(conv.ID, preview, msg.CreatedAt, receiverIsLow); err != nil {
		return err
	}

	conv.LastMessagePreview = preview
	at := msg.CreatedAt
	conv.LastMessageAt = &at
	if receiverIsLow {
		conv.UnreadCountLow++
	} else {
		conv.UnreadCountHigh++
	}
	return nil
}

// ResetUnread zeroes the reader's counter. Already-zero is a no-op.
func (r *conversationResolver) ResetUnread(conv *models.Conversation, readerID uint) error {
	readerIsLow := readerID == conv.ParticipantLowID
	if err := r.convRepo.ResetUnread(conv.ID, readerIsLow); err != nil {
		return err
	}
	if readerIsLow {
		conv.UnreadCountLow = 0
	} else {
		conv.UnreadCountHigh = 0
	}
	return nil
}

func (r *conversationResolver) ListForUser(userID uint, page, pageSize int) ([]models.ConversationSummary, error) {
	offset, limit := pageBounds(page, pageSize)
	convs, err := r.convRepo.ListForUser(userID, offset, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for i := range convs {
		summary, err := r.Summary(&convs[i], userID)
		if err != nil {
			// a blocked or vanished counterpart hides the thread, not the call
			continue
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (r *conversationResolver) Summary(conv *models.Conversation, viewerID uint) (*models.ConversationSummary, error) {
	other, err := r.authRepo.FindUserByID(conv.OtherParticipant(viewerID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.New("participant not found", http.StatusNotFound)
		}
		return nil, err
	}
	return &models.ConversationSummary{
		ConversationID:     conv.ID,
		OtherParticipant:   other.Response(),
		LastMessagePreview: conv.LastMessagePreview,
		LastMessageAt:      conv.LastMessageAt,
		UnreadCount:        conv.UnreadFor(viewerID),
	}, nil
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
