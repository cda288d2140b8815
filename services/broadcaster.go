package services

import (
	"github.com/koinoniahq/koinonia/models"
)

// Broadcaster pushes events to the live sessions of users and groups.
// Implemented by the realtime hub and faked in tests; delivery is
// best-effort and never returns an error, so a missed emission can't
// roll back a store mutation that already succeeded.
type Broadcaster interface {
	ToUser(userID uint, event models.OutEvent)
	ToUsers(userIDs []uint, event models.OutEvent)
	ToGroup(groupID string, event models.OutEvent)
	BroadcastAll(event models.OutEvent)
	JoinGroup(userID uint, groupID string)
	LeaveGroup(userID uint, groupID string)
	IsOnline(userID uint) bool
}
