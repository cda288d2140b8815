package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

func newReactionServiceFixture(t *testing.T) (ReactionService, *fakeReactionRepo, *fakeBroadcaster, *models.DirectMessage) {
	t.Helper()
	reactionRepo := newFakeReactionRepo()
	msgRepo := newFakeMessageRepo()
	broadcaster := newFakeBroadcaster()
	svc := NewReactionService(reactionRepo, msgRepo, broadcaster, nil)

	msg := &models.DirectMessage{
		ID:         uuid.New(),
		SenderID:   1,
		ReceiverID: 2,
		Content:    "nice",
		Status:     models.MessageStatusSent,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, msgRepo.Create(msg))
	return svc, reactionRepo, broadcaster, msg
}

func TestToggleRoundTrip(t *testing.T) {
	svc, repo, broadcaster, msg := newReactionServiceFixture(t)

	added, err := svc.Toggle(msg.ID, 2, "👍")
	require.NoError(t, err)
	assert.True(t, added)

	rows, err := repo.ListForMessage(msg.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(2), rows[0].UserID)

	addedEvents := broadcaster.eventsOfType(models.EventReactionAdded)
	require.Len(t, addedEvents, 1)
	assert.ElementsMatch(t, []uint{1, 2}, addedEvents[0].userIDs)

	// second identical call undoes the first
	added, err = svc.Toggle(msg.ID, 2, "👍")
	require.NoError(t, err)
	assert.False(t, added)

	rows, err = repo.ListForMessage(msg.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Len(t, broadcaster.eventsOfType(models.EventReactionRemoved), 1)
}

func TestToggleDistinctReactionsCoexist(t *testing.T) {
	svc, repo, _, msg := newReactionServiceFixture(t)

	added, err := svc.Toggle(msg.ID, 2, "👍")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = svc.Toggle(msg.ID, 2, "❤️")
	require.NoError(t, err)
	assert.True(t, added)

	rows, err := repo.ListForMessage(msg.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestToggleRequiresReaction(t *testing.T) {
	svc, _, _, msg := newReactionServiceFixture(t)

	_, err := svc.Toggle(msg.ID, 2, "")
	require.Error(t, err)
	appErr, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestToggleUnknownMessage(t *testing.T) {
	svc, _, broadcaster, _ := newReactionServiceFixture(t)

	_, err := svc.Toggle(uuid.New(), 2, "👍")
	require.Error(t, err)
	appErr, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Empty(t, broadcaster.events)
}
