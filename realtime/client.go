package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/koinoniahq/koinonia/models"
	"github.com/koinoniahq/koinonia/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Deps are the services a session dispatches into. Mutations issued over
// the socket run through the same services as their REST counterparts.
type Deps struct {
	Messages  services.MessageService
	Reactions services.ReactionService
	Groups    services.GroupService
}

// Client is one websocket session of one authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
	deps   Deps
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint, deps Deps) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		deps:   deps,
	}
}

// UserID returns the authenticated identity of this session.
func (c *Client) UserID() uint {
	return c.userID
}

// enqueue hands data to the write pump, dropping it if the session's
// buffer is full. A slow consumer must not block fan-out.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("dropping event for slow session of user %d", c.userID)
	}
}

// ReadPump consumes inbound events until the connection dies. It runs
// in the connection's handler goroutine.
func (c *Client) ReadPump(onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error for user %d: %v", c.userID, err)
			}
			break
		}

		var event models.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("malformed event")
			continue
		}
		c.dispatch(event)
	}
}

// WritePump flushes the send buffer and keeps the connection alive with
// pings. One per session, started by the websocket handler.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(event models.Event) {
	switch event.Type {
	case models.EventOnline:
		c.hub.BroadcastAll(models.OutEvent{
			Type:    models.EventUserStatus,
			Payload: models.UserStatusPayload{UserID: c.userID, Online: true},
		})

	case models.EventTyping, models.EventGroupTyping:
		c.relayTyping(event)

	case models.EventCallInitiate, models.EventCallAnswer, models.EventCallICECandidate, models.EventCallEnd:
		c.relayCallSignal(event)

	case models.EventReact:
		var p models.ReactPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("malformed react payload")
			return
		}
		messageID, err := uuid.Parse(p.MessageID)
		if err != nil {
			c.sendError("invalid message id")
			return
		}
		if _, err := c.deps.Reactions.Toggle(messageID, c.userID, p.Reaction); err != nil {
			c.sendError(err.Error())
		}

	case models.EventDelete:
		var p models.DeletePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("malformed delete payload")
			return
		}
		messageID, err := uuid.Parse(p.MessageID)
		if err != nil {
			c.sendError("invalid message id")
			return
		}
		if _, err := c.deps.Messages.SoftDelete(messageID, c.userID); err != nil {
			c.sendError(err.Error())
		}

	case models.EventGroupJoin:
		groupID, ok := c.parseGroupAction(event)
		if !ok {
			return
		}
		c.hub.JoinGroup(c.userID, groupID.String())

	case models.EventGroupLeave:
		var p models.GroupActionPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("malformed group payload")
			return
		}
		c.hub.LeaveGroup(c.userID, p.GroupID)

	case models.EventGroupMessage:
		var p models.GroupMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("malformed group message payload")
			return
		}
		groupID, err := uuid.Parse(p.GroupID)
		if err != nil {
			c.sendError("invalid group id")
			return
		}
		req := models.PostGroupMessageRequest{
			Content:        p.Content,
			AttachmentURL:  p.AttachmentURL,
			AttachmentType: p.AttachmentType,
		}
		if _, err := c.deps.Groups.PostMessage(groupID, c.userID, req); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("unknown event type")
	}
}

// relayTyping forwards a typing indicator without persisting anything.
// Offline targets simply never see it.
func (c *Client) relayTyping(event models.Event) {
	var p models.TypingPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError("malformed typing payload")
		return
	}
	p.SenderID = c.userID
	out := models.OutEvent{Type: models.EventTyping, Payload: p}

	if p.GroupID != "" {
		groupID, err := uuid.Parse(p.GroupID)
		if err != nil {
			c.sendError("invalid group id")
			return
		}
		if !c.deps.Groups.IsMember(groupID, c.userID) {
			c.sendError("you are not a member of this group")
			return
		}
		out.Type = models.EventGroupTyping
		c.hub.ToGroup(p.GroupID, out)
		return
	}
	c.hub.ToUser(p.ReceiverID, out)
}

// relayCallSignal passes the opaque WebRTC blob to the callee's
// sessions, tagged with the caller.
func (c *Client) relayCallSignal(event models.Event) {
	var p models.CallSignalPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError("malformed call payload")
		return
	}
	p.CallerID = c.userID
	c.hub.ToUser(p.ReceiverID, models.OutEvent{Type: event.Type, Payload: p})
}

func (c *Client) parseGroupAction(event models.Event) (uuid.UUID, bool) {
	var p models.GroupActionPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError("malformed group payload")
		return uuid.Nil, false
	}
	groupID, err := uuid.Parse(p.GroupID)
	if err != nil {
		c.sendError("invalid group id")
		return uuid.Nil, false
	}
	if !c.deps.Groups.IsMember(groupID, c.userID) {
		c.sendError("you are not a member of this group")
		return uuid.Nil, false
	}
	return groupID, true
}

func (c *Client) sendError(message string) {
	data, err := json.Marshal(models.OutEvent{
		Type:    models.EventError,
		Payload: models.ErrorPayload{Message: message},
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}
