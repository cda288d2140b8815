package models

import "encoding/json"

// Event is the websocket envelope in both directions. Inbound payloads
// stay raw until the dispatcher knows the type.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OutEvent is the server-to-client envelope.
type OutEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client-to-server event types.
const (
	EventOnline           = "online"
	EventTyping           = "typing"
	EventReact            = "react"
	EventDelete           = "delete"
	EventCallInitiate     = "call:initiate"
	EventCallAnswer       = "call:answer"
	EventCallICECandidate = "call:ice-candidate"
	EventCallEnd          = "call:end"
	EventGroupJoin        = "group:join"
	EventGroupLeave       = "group:leave"
	EventGroupMessage     = "group:message"
	EventGroupTyping      = "group:typing"
)

// Server-to-client event types.
const (
	EventMessageNew          = "message:new"
	EventMessageSent         = "message:sent"
	EventConversationUpdated = "conversation:updated"
	EventReactionAdded       = "message:reaction-added"
	EventReactionRemoved     = "message:reaction-removed"
	EventMessageDeleted      = "message:deleted"
	EventGroupMessageNew     = "group:message-new"
	EventGroupUserJoined     = "group:user-joined"
	EventGroupUserLeft       = "group:user-left"
	EventUserStatus          = "user:status"
	EventError               = "error"
)

// TypingPayload targets either a user or a group, never both.
type TypingPayload struct {
	SenderID   uint   `json:"sender_id,omitempty"`
	ReceiverID uint   `json:"receiver_id,omitempty"`
	GroupID    string `json:"group_id,omitempty"`
	IsTyping   bool   `json:"is_typing"`
}

// CallSignalPayload relays WebRTC signaling blobs point-to-point. The
// signal body is opaque to the server.
type CallSignalPayload struct {
	CallerID   uint            `json:"caller_id,omitempty"`
	ReceiverID uint            `json:"receiver_id"`
	Signal     json.RawMessage `json:"signal,omitempty"`
}

type ReactPayload struct {
	MessageID string `json:"message_id"`
	Reaction  string `json:"reaction"`
}

type DeletePayload struct {
	MessageID string `json:"message_id"`
}

type GroupActionPayload struct {
	GroupID string `json:"group_id"`
}

type GroupMessagePayload struct {
	GroupID        string `json:"group_id"`
	Content        string `json:"content"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
}

type UserStatusPayload struct {
	UserID uint `json:"user_id"`
	Online bool `json:"online"`
}

type ReactionEventPayload struct {
	MessageID string `json:"message_id"`
	UserID    uint   `json:"user_id"`
	Reaction  string `json:"reaction"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"message_id"`
	DeletedBy uint   `json:"deleted_by"`
}

type GroupMembershipPayload struct {
	GroupID string `json:"group_id"`
	UserID  uint   `json:"user_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
