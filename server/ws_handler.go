package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
	"github.com/koinoniahq/koinonia/realtime"
	"github.com/koinoniahq/koinonia/server/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades the connection into a live session. Browsers
// cannot set headers on a websocket handshake, so the token may arrive
// as a query parameter instead.
func (s *Server) handleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = getTokenFromHeader(c)
		}
		if token == "" {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		user, err := s.authenticateToken(token)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed for user %d: %v", user.ID, err)
			return
		}

		client := realtime.NewClient(s.Hub, conn, user.ID, realtime.Deps{
			Messages:  s.MessageService,
			Reactions: s.ReactionService,
			Groups:    s.GroupService,
		})

		if first := s.Hub.Register(client); first {
			if err := s.AuthRepository.SetUserOnline(user.ID, true); err != nil {
				log.Printf("failed to mark user %d online: %v", user.ID, err)
			}
			s.Hub.BroadcastAll(models.OutEvent{
				Type:    models.EventUserStatus,
				Payload: models.UserStatusPayload{UserID: user.ID, Online: true},
			})
		}

		groupIDs, err := s.GroupService.GroupIDsForUser(user.ID)
		if err != nil {
			log.Printf("failed to load groups for user %d: %v", user.ID, err)
		}
		for _, groupID := range groupIDs {
			s.Hub.JoinGroup(user.ID, groupID)
		}

		go client.WritePump()
		go client.ReadPump(s.onSessionClose)
	}
}

// onSessionClose runs when a session's read pump exits. Presence only
// flips to offline once the user's last session is gone.
func (s *Server) onSessionClose(client *realtime.Client) {
	if last := s.Hub.Unregister(client); last {
		if err := s.AuthRepository.SetUserOnline(client.UserID(), false); err != nil {
			log.Printf("failed to mark user %d offline: %v", client.UserID(), err)
		}
		s.Hub.BroadcastAll(models.OutEvent{
			Type:    models.EventUserStatus,
			Payload: models.UserStatusPayload{UserID: client.UserID(), Online: false},
		})
	}
}
