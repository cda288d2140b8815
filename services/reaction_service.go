package services

import (
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

// ReactionService interface
type ReactionService interface {
	Toggle(messageID uuid.UUID, userID uint, reaction string) (added bool, err error)
	ListForMessage(messageID uuid.UUID) ([]models.MessageReaction, error)
}

// reactionService struct
type reactionService struct {
	Config       *config.Config
	reactionRepo db.ReactionRepository
	msgRepo      db.MessageRepository
	broadcaster  Broadcaster
}

// NewReactionService creates a new instance of ReactionService
func NewReactionService(reactionRepo db.ReactionRepository, msgRepo db.MessageRepository, broadcaster Broadcaster, conf *config.Config) ReactionService {
	return &reactionService{
		Config:       conf,
		reactionRepo: reactionRepo,
		msgRepo:      msgRepo,
		broadcaster:  broadcaster,
	}
}

// Toggle flips the (message, user, reaction) row and tells both
// participants' sessions which way it went. A second identical call
// reverses the first; that is the intended round trip.
func (s *reactionService) Toggle(messageID uuid.UUID, userID uint, reaction string) (bool, error) {
	if reaction == "" {
		return false, errs.New("reaction is required", http.StatusBadRequest)
	}
	msg, err := s.msgRepo.FindByID(messageID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, errs.New("message not found", http.StatusNotFound)
		}
		return false, err
	}

	added, err := s.reactionRepo.Toggle(messageID, userID, reaction)
	if err != nil {
		return false, err
	}

	eventType := models.EventReactionRemoved
	if added {
		eventType = models.EventReactionAdded
	}
	payload := models.ReactionEventPayload{
		MessageID: messageID.String(),
		UserID:    userID,
		Reaction:  reaction,
	}
	s.broadcaster.ToUsers([]uint{msg.SenderID, msg.ReceiverID},
		models.OutEvent{Type: eventType, Payload: payload})
	return added, nil
}

func (s *reactionService) ListForMessage(messageID uuid.UUID) ([]models.MessageReaction, error) {
	return s.reactionRepo.ListForMessage(messageID)
}
