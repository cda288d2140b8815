package services

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

// GroupService interface
type GroupService interface {
	CreateGroup(ownerID uint, req models.CreateGroupRequest) (*models.GroupChat, error)
	UpdateGroup(groupID uuid.UUID, actorID uint, req models.UpdateGroupRequest) (*models.GroupChat, error)
	DeactivateGroup(groupID uuid.UUID, actorID uint) error
	AddMember(groupID uuid.UUID, actorID, targetID uint) (*models.GroupMember, error)
	RemoveMember(groupID uuid.UUID, actorID, targetID uint) error
	PostMessage(groupID uuid.UUID, senderID uint, req models.PostGroupMessageRequest) (*models.GroupMessage, error)
	ListMessages(groupID uuid.UUID, requesterID uint, page, pageSize int) ([]models.GroupMessage, error)
	ListGroups(userID uint, page, pageSize int) ([]models.GroupChat, error)
	GroupIDsForUser(userID uint) ([]string, error)
	IsMember(groupID uuid.UUID, userID uint) bool
}

// groupService struct
type groupService struct {
	Config      *config.Config
	groupRepo   db.GroupRepository
	authRepo    db.AuthRepository
	broadcaster Broadcaster
}

// NewGroupService creates a new instance of GroupService
func NewGroupService(groupRepo db.GroupRepository, authRepo db.AuthRepository, broadcaster Broadcaster, conf *config.Config) GroupService {
	return &groupService{
		Config:      conf,
		groupRepo:   groupRepo,
		authRepo:    authRepo,
		broadcaster: broadcaster,
	}
}

func (s *groupService) CreateGroup(ownerID uint, req models.CreateGroupRequest) (*models.GroupChat, error) {
	group := &models.GroupChat{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		CreatedBy:   ownerID,
		IsActive:    true,
	}
	if err := s.groupRepo.CreateWithOwner(group, ownerID); err != nil {
		return nil, err
	}
	s.broadcaster.JoinGroup(ownerID, group.ID.String())
	return group, nil
}

func (s *groupService) UpdateGroup(groupID uuid.UUID, actorID uint, req models.UpdateGroupRequest) (*models.GroupChat, error) {
	group, actor, err := s.loadGroupAndActor(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, group, GroupActionUpdate, 0); err != nil {
		return nil, err
	}

	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.AvatarURL != "" {
		group.AvatarURL = req.AvatarURL
	}
	if err := s.groupRepo.Update(group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeactivateGroup is terminal for listings, not for row existence.
func (s *groupService) DeactivateGroup(groupID uuid.UUID, actorID uint) error {
	group, actor, err := s.loadGroupAndActor(groupID, actorID)
	if err != nil {
		return err
	}
	if err := CanPerform(actor, group, GroupActionDeactivate, 0); err != nil {
		return err
	}
	return s.groupRepo.Deactivate(groupID)
}

func (s *groupService) AddMember(groupID uuid.UUID, actorID, targetID uint) (*models.GroupMember, error) {
	group, actor, err := s.loadGroupAndActor(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, group, GroupActionAddMember, targetID); err != nil {
		return nil, err
	}
	if _, err := s.authRepo.FindUserByID(targetID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.New("user not found", http.StatusNotFound)
		}
		return nil, err
	}

	member := &models.GroupMember{
		ID:       uuid.New(),
		GroupID:  groupID,
		UserID:   targetID,
		Role:     models.GroupRoleMember,
		JoinedAt: time.Now().UTC(),
	}
	created, err := s.groupRepo.AddMember(member)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, errs.New("user is already a member", http.StatusConflict)
	}

	s.broadcaster.JoinGroup(targetID, groupID.String())
	s.broadcaster.ToGroup(groupID.String(), models.OutEvent{
		Type:    models.EventGroupUserJoined,
		Payload: models.GroupMembershipPayload{GroupID: groupID.String(), UserID: targetID},
	})
	return member, nil
}

// RemoveMember: self-removal always allowed, removal of others needs
// ADMIN, and the creator can never be removed by anyone. A removal of a
// user who is already gone is a no-op.
func (s *groupService) RemoveMember(groupID uuid.UUID, actorID, targetID uint) error {
	group, actor, err := s.loadGroupAndActor(groupID, actorID)
	if err != nil {
		return err
	}
	if err := CanPerform(actor, group, GroupActionRemoveMember, targetID); err != nil {
		return err
	}

	rows, err := s.groupRepo.RemoveMember(groupID, targetID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}

	s.broadcaster.LeaveGroup(targetID, groupID.String())
	s.broadcaster.ToGroup(groupID.String(), models.OutEvent{
		Type:    models.EventGroupUserLeft,
		Payload: models.GroupMembershipPayload{GroupID: groupID.String(), UserID: targetID},
	})
	return nil
}

// PostMessage checks membership before any persistence.
func (s *groupService) PostMessage(groupID uuid.UUID, senderID uint, req models.PostGroupMessageRequest) (*models.GroupMessage, error) {
	group, actor, err := s.loadGroupAndActor(groupID, senderID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, group, GroupActionPost, 0); err != nil {
		return nil, err
	}

	msg := &models.GroupMessage{
		ID:             uuid.New(),
		GroupID:        groupID,
		SenderID:       senderID,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.groupRepo.CreateMessage(msg); err != nil {
		return nil, err
	}

	s.broadcaster.ToGroup(groupID.String(), models.OutEvent{Type: models.EventGroupMessageNew, Payload: msg})
	return msg, nil
}

func (s *groupService) ListMessages(groupID uuid.UUID, requesterID uint, page, pageSize int) ([]models.GroupMessage, error) {
	group, actor, err := s.loadGroupAndActor(groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, group, GroupActionRead, 0); err != nil {
		return nil, err
	}

	offset, limit := pageBounds(page, pageSize)
	msgs, err := s.groupRepo.ListMessages(groupID, offset, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *groupService) ListGroups(userID uint, page, pageSize int) ([]models.GroupChat, error) {
	offset, limit := pageBounds(page, pageSize)
	return s.groupRepo.ListForUser(userID, offset, limit)
}

// GroupIDsForUser feeds the websocket handshake: a connecting session
// joins every group channel it belongs to.
func (s *groupService) GroupIDsForUser(userID uint) ([]string, error) {
	groups, err := s.groupRepo.ListForUser(userID, 0, 1000)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID.String())
	}
	return ids, nil
}

func (s *groupService) IsMember(groupID uuid.UUID, userID uint) bool {
	_, err := s.groupRepo.FindMember(groupID, userID)
	return err == nil
}

func (s *groupService) loadGroupAndActor(groupID uuid.UUID, actorID uint) (*models.GroupChat, *models.GroupMember, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errs.New("group not found", http.StatusNotFound)
		}
		return nil, nil, err
	}
	if !group.IsActive {
		return nil, nil, errs.New("group not found", http.StatusNotFound)
	}

	actor, err := s.groupRepo.FindMember(groupID, actorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return group, nil, nil
		}
		return nil, nil, err
	}
	return group, actor, nil
}
