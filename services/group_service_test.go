package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

type groupServiceFixture struct {
	svc         GroupService
	groupRepo   *fakeGroupRepo
	authRepo    *fakeAuthRepo
	broadcaster *fakeBroadcaster
}

func newGroupServiceFixture(userIDs ...uint) *groupServiceFixture {
	f := &groupServiceFixture{
		groupRepo:   newFakeGroupRepo(),
		authRepo:    newFakeAuthRepo(userIDs...),
		broadcaster: newFakeBroadcaster(),
	}
	f.svc = NewGroupService(f.groupRepo, f.authRepo, f.broadcaster, nil)
	return f
}

func (f *groupServiceFixture) createGroup(t *testing.T, ownerID uint) *models.GroupChat {
	t.Helper()
	group, err := f.svc.CreateGroup(ownerID, models.CreateGroupRequest{Name: "book club"})
	require.NoError(t, err)
	return group
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, status, appErr.Status)
}

func TestCreateGroupMakesOwnerAdmin(t *testing.T) {
	f := newGroupServiceFixture(1)

	group := f.createGroup(t, 1)
	assert.True(t, group.IsActive)
	assert.Equal(t, uint(1), group.CreatedBy)

	member, err := f.groupRepo.FindMember(group.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.GroupRoleAdmin, member.Role)

	// the owner's live sessions join the room immediately
	assert.Contains(t, f.broadcaster.joined[group.ID.String()], uint(1))
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	f := newGroupServiceFixture(1, 2, 3)
	group := f.createGroup(t, 1)

	_, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)

	// a plain member may not add
	_, err = f.svc.AddMember(group.ID, 2, 3)
	requireStatus(t, err, http.StatusForbidden)

	// a non-member may not add
	_, err = f.svc.AddMember(group.ID, 3, 2)
	requireStatus(t, err, http.StatusForbidden)
}

func TestAddMemberDuplicateConflicts(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)

	member, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.GroupRoleMember, member.Role)

	_, err = f.svc.AddMember(group.ID, 1, 2)
	requireStatus(t, err, http.StatusConflict)
}

func TestAddMemberUnknownUser(t *testing.T) {
	f := newGroupServiceFixture(1)
	group := f.createGroup(t, 1)

	_, err := f.svc.AddMember(group.ID, 1, 42)
	requireStatus(t, err, http.StatusNotFound)
}

func TestAddMemberAnnouncesJoin(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)

	_, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)

	assert.Contains(t, f.broadcaster.joined[group.ID.String()], uint(2))
	events := f.broadcaster.eventsOfType(models.EventGroupUserJoined)
	require.Len(t, events, 1)
	assert.Equal(t, group.ID.String(), events[0].groupID)
}

func TestRemoveMemberRules(t *testing.T) {
	f := newGroupServiceFixture(1, 2, 3)
	group := f.createGroup(t, 1)
	_, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)
	_, err = f.svc.AddMember(group.ID, 1, 3)
	require.NoError(t, err)

	// nobody removes the creator, the creator included
	err = f.svc.RemoveMember(group.ID, 1, 1)
	requireStatus(t, err, http.StatusForbidden)
	err = f.svc.RemoveMember(group.ID, 2, 1)
	requireStatus(t, err, http.StatusForbidden)

	// a plain member may not remove someone else
	err = f.svc.RemoveMember(group.ID, 2, 3)
	requireStatus(t, err, http.StatusForbidden)

	// self-removal is always allowed
	err = f.svc.RemoveMember(group.ID, 2, 2)
	require.NoError(t, err)
	_, err = f.groupRepo.FindMember(group.ID, 2)
	require.Error(t, err)

	// an admin removes a plain member
	err = f.svc.RemoveMember(group.ID, 1, 3)
	require.NoError(t, err)

	events := f.broadcaster.eventsOfType(models.EventGroupUserLeft)
	assert.Len(t, events, 2)
}

func TestRemoveAbsentMemberIsNoOp(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)

	err := f.svc.RemoveMember(group.ID, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, f.broadcaster.eventsOfType(models.EventGroupUserLeft))
}

func TestPostMessageRequiresMembership(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)

	_, err := f.svc.PostMessage(group.ID, 2, models.PostGroupMessageRequest{Content: "hi"})
	requireStatus(t, err, http.StatusForbidden)

	// the rejection must leave nothing behind
	msgs, err := f.groupRepo.ListMessages(group.ID, 0, 20)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPostMessageBroadcastsToRoom(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)
	_, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)

	msg, err := f.svc.PostMessage(group.ID, 2, models.PostGroupMessageRequest{Content: "hello all"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), msg.SenderID)

	events := f.broadcaster.eventsOfType(models.EventGroupMessageNew)
	require.Len(t, events, 1)
	assert.Equal(t, group.ID.String(), events[0].groupID)
}

func TestListMessagesMemberGatedAndOrdered(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)

	for _, content := range []string{"one", "two", "three"} {
		_, err := f.svc.PostMessage(group.ID, 1, models.PostGroupMessageRequest{Content: content})
		require.NoError(t, err)
	}

	_, err := f.svc.ListMessages(group.ID, 2, 1, 20)
	requireStatus(t, err, http.StatusForbidden)

	msgs, err := f.svc.ListMessages(group.ID, 1, 1, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
}

func TestUpdateGroupRequiresAdmin(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)
	_, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)

	_, err = f.svc.UpdateGroup(group.ID, 2, models.UpdateGroupRequest{Name: "hijacked"})
	requireStatus(t, err, http.StatusForbidden)

	updated, err := f.svc.UpdateGroup(group.ID, 1, models.UpdateGroupRequest{Name: "film club"})
	require.NoError(t, err)
	assert.Equal(t, "film club", updated.Name)

	stored, err := f.groupRepo.FindByID(group.ID)
	require.NoError(t, err)
	assert.Equal(t, "film club", stored.Name)
}

func TestDeactivateOnlyByCreator(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)
	_, err := f.svc.AddMember(group.ID, 1, 2)
	require.NoError(t, err)

	err = f.svc.DeactivateGroup(group.ID, 2)
	requireStatus(t, err, http.StatusForbidden)

	require.NoError(t, f.svc.DeactivateGroup(group.ID, 1))

	// a deactivated group behaves as gone for every operation
	_, err = f.svc.PostMessage(group.ID, 1, models.PostGroupMessageRequest{Content: "too late"})
	requireStatus(t, err, http.StatusNotFound)

	groups, err := f.svc.ListGroups(1, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, groups)

	// the row itself survives
	stored, err := f.groupRepo.FindByID(group.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestGroupNotFound(t *testing.T) {
	f := newGroupServiceFixture(1)

	_, err := f.svc.PostMessage(uuid.New(), 1, models.PostGroupMessageRequest{Content: "void"})
	requireStatus(t, err, http.StatusNotFound)
}

func TestGroupIDsForUser(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	groupA := f.createGroup(t, 1)
	groupB := f.createGroup(t, 2)
	_, err := f.svc.AddMember(groupB.ID, 2, 1)
	require.NoError(t, err)

	ids, err := f.svc.GroupIDsForUser(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{groupA.ID.String(), groupB.ID.String()}, ids)
}

func TestIsMember(t *testing.T) {
	f := newGroupServiceFixture(1, 2)
	group := f.createGroup(t, 1)

	assert.True(t, f.svc.IsMember(group.ID, 1))
	assert.False(t, f.svc.IsMember(group.ID, 2))
}
