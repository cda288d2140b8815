package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
)

// In-memory doubles for the repository interfaces. They reproduce the
// store semantics the services rely on (canonical pair uniqueness,
// counter arithmetic, soft-delete visibility) without a database.

type fakeAuthRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeAuthRepo(ids ...uint) *fakeAuthRepo {
	r := &fakeAuthRepo{users: make(map[uint]*models.User)}
	for _, id := range ids {
		r.users[id] = &models.User{Model: models.Model{ID: id}, Fullname: "user", Username: "user"}
	}
	return r
}

func (r *fakeAuthRepo) FindUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if u.IsBlocked {
		return nil, errs.InActiveUserError
	}
	copied := *u
	return &copied, nil
}

func (r *fakeAuthRepo) IsTokenInBlacklist(token string) bool { return false }

func (r *fakeAuthRepo) SetUserOnline(userID uint, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Online = online
	}
	return nil
}

func (r *fakeAuthRepo) ListOnlineUsers() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Online {
			out = append(out, *u)
		}
	}
	return out, nil
}

type pairKey struct{ low, high uint }

type fakeConversationRepo struct {
	mu      sync.Mutex
	byPair  map[pairKey]*models.Conversation
	inserts int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byPair: make(map[pairKey]*models.Conversation)}
}

func (r *fakeConversationRepo) GetOrCreate(lowID, highID uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{lowID, highID}
	if conv, ok := r.byPair[key]; ok {
		copied := *conv
		return &copied, nil
	}
	conv := &models.Conversation{
		ID:                uuid.New(),
		ParticipantLowID:  lowID,
		ParticipantHighID: highID,
		CreatedAt:         time.Now().UTC(),
	}
	r.byPair[key] = conv
	r.inserts++
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) FindByID(id uuid.UUID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.byPair {
		if conv.ID == id {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeConversationRepo) FindByPair(lowID, highID uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byPair[pairKey{lowID, highID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) RecordMessage(id uuid.UUID, preview string, at time.Time, receiverIsLow bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.byPair {
		if conv.ID != id {
			continue
		}
		conv.LastMessagePreview = preview
		stamped := at
		conv.LastMessageAt = &stamped
		if receiverIsLow {
			conv.UnreadCountLow++
		} else {
			conv.UnreadCountHigh++
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeConversationRepo) ResetUnread(id uuid.UUID, readerIsLow bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.byPair {
		if conv.ID != id {
			continue
		}
		if readerIsLow {
			conv.UnreadCountLow = 0
		} else {
			conv.UnreadCountHigh = 0
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeConversationRepo) ListForUser(userID uint, offset, limit int) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, conv := range r.byPair {
		if conv.ParticipantLowID == userID || conv.ParticipantHighID == userID {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	if offset >= len(out) {
		return []models.Conversation{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*models.DirectMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*models.DirectMessage)}
}

func (r *fakeMessageRepo) Create(msg *models.DirectMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) FindByID(id uuid.UUID) (*models.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *msg
	return &copied, nil
}

func (r *fakeMessageRepo) ListByConversation(conversationID uuid.UUID, offset, limit int) ([]models.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DirectMessage
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID && !msg.IsDeleted {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []models.DirectMessage{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeMessageRepo) MarkRead(readerID, otherID uint, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows int64
	for _, msg := range r.messages {
		if msg.SenderID == otherID && msg.ReceiverID == readerID && msg.Status != models.MessageStatusRead {
			msg.Status = models.MessageStatusRead
			stamped := at
			msg.ReadAt = &stamped
			rows++
		}
	}
	return rows, nil
}

func (r *fakeMessageRepo) SoftDelete(id uuid.UUID, deletedBy uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	msg.IsDeleted = true
	msg.DeletedBy = &deletedBy
	return nil
}

func (r *fakeMessageRepo) CountUnread(readerID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, msg := range r.messages {
		if msg.ReceiverID == readerID && msg.Status != models.MessageStatusRead && !msg.IsDeleted {
			count++
		}
	}
	return count, nil
}

type reactionKey struct {
	messageID uuid.UUID
	userID    uint
	reaction  string
}

type fakeReactionRepo struct {
	mu   sync.Mutex
	rows map[reactionKey]models.MessageReaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{rows: make(map[reactionKey]models.MessageReaction)}
}

func (r *fakeReactionRepo) Toggle(messageID uuid.UUID, userID uint, reaction string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey{messageID, userID, reaction}
	if _, ok := r.rows[key]; ok {
		delete(r.rows, key)
		return false, nil
	}
	r.rows[key] = models.MessageReaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Reaction:  reaction,
		CreatedAt: time.Now().UTC(),
	}
	return true, nil
}

func (r *fakeReactionRepo) ListForMessage(messageID uuid.UUID) ([]models.MessageReaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MessageReaction
	for _, row := range r.rows {
		if row.MessageID == messageID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeGroupRepo struct {
	mu       sync.Mutex
	groups   map[uuid.UUID]*models.GroupChat
	members  map[uuid.UUID]map[uint]*models.GroupMember
	messages map[uuid.UUID][]models.GroupMessage
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:   make(map[uuid.UUID]*models.GroupChat),
		members:  make(map[uuid.UUID]map[uint]*models.GroupMember),
		messages: make(map[uuid.UUID][]models.GroupMessage),
	}
}

func (r *fakeGroupRepo) CreateWithOwner(group *models.GroupChat, ownerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *group
	r.groups[group.ID] = &copied
	r.members[group.ID] = map[uint]*models.GroupMember{
		ownerID: {
			ID:       uuid.New(),
			GroupID:  group.ID,
			UserID:   ownerID,
			Role:     models.GroupRoleAdmin,
			JoinedAt: time.Now().UTC(),
		},
	}
	return nil
}

func (r *fakeGroupRepo) FindByID(id uuid.UUID) (*models.GroupChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *group
	return &copied, nil
}

func (r *fakeGroupRepo) Update(group *models.GroupChat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) Deactivate(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	group.IsActive = false
	return nil
}

func (r *fakeGroupRepo) AddMember(member *models.GroupMember) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[member.GroupID] == nil {
		r.members[member.GroupID] = make(map[uint]*models.GroupMember)
	}
	if _, ok := r.members[member.GroupID][member.UserID]; ok {
		return false, nil
	}
	copied := *member
	r.members[member.GroupID][member.UserID] = &copied
	return true, nil
}

func (r *fakeGroupRepo) RemoveMember(groupID uuid.UUID, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[groupID][userID]; !ok {
		return 0, nil
	}
	delete(r.members[groupID], userID)
	return 1, nil
}

func (r *fakeGroupRepo) FindMember(groupID uuid.UUID, userID uint) (*models.GroupMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[groupID][userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *member
	return &copied, nil
}

func (r *fakeGroupRepo) MemberIDs(groupID uuid.UUID) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for id := range r.members[groupID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeGroupRepo) ListForUser(userID uint, offset, limit int) ([]models.GroupChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GroupChat
	for groupID, members := range r.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		if group := r.groups[groupID]; group != nil && group.IsActive {
			out = append(out, *group)
		}
	}
	if offset >= len(out) {
		return []models.GroupChat{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeGroupRepo) CreateMessage(msg *models.GroupMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.GroupID] = append(r.messages[msg.GroupID], *msg)
	return nil
}

func (r *fakeGroupRepo) ListMessages(groupID uuid.UUID, offset, limit int) ([]models.GroupMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append([]models.GroupMessage(nil), r.messages[groupID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	if offset >= len(msgs) {
		return []models.GroupMessage{}, nil
	}
	end := offset + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[offset:end], nil
}

// recordedEvent captures one broadcaster emission for assertions.
type recordedEvent struct {
	target  string
	userID  uint
	userIDs []uint
	groupID string
	event   models.OutEvent
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
	online map[uint]bool
	joined map[string][]uint
	left   map[string][]uint
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		online: make(map[uint]bool),
		joined: make(map[string][]uint),
		left:   make(map[string][]uint),
	}
}

func (b *fakeBroadcaster) ToUser(userID uint, event models.OutEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{target: "user", userID: userID, event: event})
}

func (b *fakeBroadcaster) ToUsers(userIDs []uint, event models.OutEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{target: "users", userIDs: userIDs, event: event})
}

func (b *fakeBroadcaster) ToGroup(groupID string, event models.OutEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{target: "group", groupID: groupID, event: event})
}

func (b *fakeBroadcaster) BroadcastAll(event models.OutEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{target: "all", event: event})
}

func (b *fakeBroadcaster) JoinGroup(userID uint, groupID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.joined[groupID] = append(b.joined[groupID], userID)
}

func (b *fakeBroadcaster) LeaveGroup(userID uint, groupID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.left[groupID] = append(b.left[groupID], userID)
}

func (b *fakeBroadcaster) IsOnline(userID uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online[userID]
}

func (b *fakeBroadcaster) eventsOfType(eventType string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type notifiedMessage struct {
	receiverID uint
	senderID   uint
	preview    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifiedMessage
}

func (n *fakeNotifier) NotifyNewMessage(receiverID, senderID uint, preview string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifiedMessage{receiverID: receiverID, senderID: senderID, preview: preview})
}
