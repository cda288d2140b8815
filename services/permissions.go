package services

import (
	"net/http"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

// GroupAction names a mutating or reading operation on a group.
type GroupAction string

const (
	GroupActionUpdate       GroupAction = "group.update"
	GroupActionDeactivate   GroupAction = "group.deactivate"
	GroupActionAddMember    GroupAction = "group.add_member"
	GroupActionRemoveMember GroupAction = "group.remove_member"
	GroupActionPost         GroupAction = "group.post"
	GroupActionRead         GroupAction = "group.read"
)

// CanPerform is the single authorization gate for group operations.
// actor is the acting user's membership row, or nil when they are not a
// member. targetID is only meaningful for member removal.
func CanPerform(actor *models.GroupMember, group *models.GroupChat, action GroupAction, targetID uint) error {
	if actor == nil {
		return errs.New("you are not a member of this group", http.StatusForbidden)
	}

	switch action {
	case GroupActionRead, GroupActionPost:
		return nil
	case GroupActionUpdate, GroupActionAddMember:
		if actor.Role != models.GroupRoleAdmin {
			return errs.New("admin role required", http.StatusForbidden)
		}
		return nil
	case GroupActionDeactivate:
		if actor.UserID != group.CreatedBy {
			return errs.New("only the group creator can deactivate it", http.StatusForbidden)
		}
		return nil
	case GroupActionRemoveMember:
		// nobody removes the creator, the creator included
		if targetID == group.CreatedBy {
			return errs.New("the group creator cannot be removed", http.StatusForbidden)
		}
		if targetID == actor.UserID {
			return nil
		}
		if actor.Role != models.GroupRoleAdmin {
			return errs.New("admin role required", http.StatusForbidden)
		}
		return nil
	default:
		return errs.New("unknown action", http.StatusForbidden)
	}
}

// CanDeleteMessage gates direct-message deletion: sender and receiver
// are equally entitled, nobody else.
func CanDeleteMessage(actorID uint, msg *models.DirectMessage) error {
	if actorID != msg.SenderID && actorID != msg.ReceiverID {
		return errs.New("you are not a participant of this message", http.StatusForbidden)
	}
	return nil
}
