package services

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

// MessageService interface
type MessageService interface {
	Send(senderID uint, req models.SendMessageRequest) (*models.SendMessageResponse, error)
	MarkRead(readerID, otherID uint) (int64, error)
	SoftDelete(messageID uuid.UUID, requesterID uint) (*models.DirectMessage, error)
	ListMessages(requesterID, otherID uint, page, pageSize int) ([]models.DirectMessage, error)
	ListConversations(userID uint, page, pageSize int) ([]models.ConversationSummary, error)
	UnreadCount(userID uint) (int64, error)
}

// messageService struct
type messageService struct {
	Config      *config.Config
	msgRepo     db.MessageRepository
	resolver    ConversationResolver
	broadcaster Broadcaster
	notifier    NotificationService
	authRepo    db.AuthRepository
}

// NewMessageService creates a new instance of MessageService
func NewMessageService(msgRepo db.MessageRepository, resolver ConversationResolver, authRepo db.AuthRepository, broadcaster Broadcaster, notifier NotificationService, conf *config.Config) MessageService {
	return &messageService{
		Config:      conf,
		msgRepo:     msgRepo,
		resolver:    resolver,
		authRepo:    authRepo,
		broadcaster: broadcaster,
		notifier:    notifier,
	}
}

// Send persists the message, rolls the conversation forward through the
// resolver, then fans out. Fan-out and notification failures never undo
// the persistence that already happened.
func (s *messageService) Send(senderID uint, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	if senderID == req.ReceiverID {
		return nil, errs.New("cannot send a message to yourself", http.StatusBadRequest)
	}
	if _, err := s.authRepo.FindUserByID(req.ReceiverID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.New("receiver not found", http.StatusNotFound)
		}
		return nil, err
	}

	conv, err := s.resolver.GetOrCreate(senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.DirectMessage{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		Status:         models.MessageStatusSent,
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgRepo.Create(msg); err != nil {
		return nil, err
	}
	if err := s.resolver.RecordMessage(conv, msg); err != nil {
		return nil, err
	}

	s.broadcaster.ToUser(req.ReceiverID, models.OutEvent{Type: models.EventMessageNew, Payload: msg})
	s.broadcaster.ToUser(senderID, models.OutEvent{Type: models.EventMessageSent, Payload: msg})
	s.pushConversationUpdate(conv, senderID)
	s.pushConversationUpdate(conv, req.ReceiverID)

	if !s.broadcaster.IsOnline(req.ReceiverID) {
		s.notifier.NotifyNewMessage(req.ReceiverID, senderID, TruncatePreview(req.Content))
	}

	summary, err := s.resolver.Summary(conv, senderID)
	if err != nil {
		return nil, err
	}
	return &models.SendMessageResponse{Message: msg, Conversation: summary}, nil
}

// MarkRead bulk-flips unread messages from otherID and zeroes the
// reader's counter. A second call with nothing unread changes zero rows
// and emits nothing.
func (s *messageService) MarkRead(readerID, otherID uint) (int64, error) {
	rows, err := s.msgRepo.MarkRead(readerID, otherID, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	conv, err := s.resolver.FindByPair(readerID, otherID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return rows, nil
		}
		return rows, err
	}
	if err := s.resolver.ResetUnread(conv, readerID); err != nil {
		return rows, err
	}

	if rows > 0 {
		s.pushConversationUpdate(conv, readerID)
	}
	return rows, nil
}

// SoftDelete flags the row invisible; it stays in storage. Both parties
// may delete. Repeat deletion is a no-op.
func (s *messageService) SoftDelete(messageID uuid.UUID, requesterID uint) (*models.DirectMessage, error) {
	msg, err := s.msgRepo.FindByID(messageID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.New("message not found", http.StatusNotFound)
		}
		return nil, err
	}
	if err := CanDeleteMessage(requesterID, msg); err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return msg, nil
	}

	if err := s.msgRepo.SoftDelete(messageID, requesterID); err != nil {
		return nil, err
	}
	msg.IsDeleted = true
	msg.DeletedBy = &requesterID

	payload := models.MessageDeletedPayload{MessageID: messageID.String(), DeletedBy: requesterID}
	s.broadcaster.ToUsers([]uint{msg.SenderID, msg.ReceiverID},
		models.OutEvent{Type: models.EventMessageDeleted, Payload: payload})
	return msg, nil
}

// ListMessages pages the thread (queried newest-first, returned
// oldest-first) and implicitly marks the fetched range read.
func (s *messageService) ListMessages(requesterID, otherID uint, page, pageSize int) ([]models.DirectMessage, error) {
	conv, err := s.resolver.FindByPair(requesterID, otherID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return []models.DirectMessage{}, nil
		}
		return nil, err
	}

	offset, limit := pageBounds(page, pageSize)
	msgs, err := s.msgRepo.ListByConversation(conv.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if _, err := s.MarkRead(requesterID, otherID); err != nil {
		log.Printf("implicit mark-read failed for user %d: %v", requesterID, err)
	}
	return msgs, nil
}

func (s *messageService) ListConversations(userID uint, page, pageSize int) ([]models.ConversationSummary, error) {
	return s.resolver.ListForUser(userID, page, pageSize)
}

func (s *messageService) UnreadCount(userID uint) (int64, error) {
	return s.msgRepo.CountUnread(userID)
}

func (s *messageService) pushConversationUpdate(conv *models.Conversation, viewerID uint) {
	summary, err := s.resolver.Summary(conv, viewerID)
	if err != nil {
		log.Printf("conversation summary for user %d failed: %v", viewerID, err)
		return
	}
	s.broadcaster.ToUser(viewerID, models.OutEvent{Type: models.EventConversationUpdated, Payload: summary})
}
