package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
	"github.com/koinoniahq/koinonia/server/response"
)

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}

		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		result, err := s.MessageService.Send(userID, req)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Message sent successfully", http.StatusCreated, result, nil)
	}
}

func (s *Server) handleListMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		otherID, err := paramUint(c, "userID")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid user id", http.StatusBadRequest))
			return
		}

		page, pageSize := paginationParams(c)
		msgs, err := s.MessageService.ListMessages(userID, otherID, page, pageSize)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Messages retrieved successfully", http.StatusOK, msgs, nil)
	}
}

func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		otherID, err := paramUint(c, "userID")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid user id", http.StatusBadRequest))
			return
		}

		rows, err := s.MessageService.MarkRead(userID, otherID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Messages marked as read", http.StatusOK, gin.H{"updated": rows}, nil)
	}
}

func (s *Server) handleDeleteMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		messageID, err := uuid.Parse(c.Param("messageID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid message id", http.StatusBadRequest))
			return
		}

		msg, err := s.MessageService.SoftDelete(messageID, userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Message deleted successfully", http.StatusOK, msg, nil)
	}
}

func (s *Server) handleToggleReaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		messageID, err := uuid.Parse(c.Param("messageID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid message id", http.StatusBadRequest))
			return
		}

		var req models.ToggleReactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		added, err := s.ReactionService.Toggle(messageID, userID, req.Reaction)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		action := "removed"
		if added {
			action = "added"
		}
		response.JSON(c, "Reaction "+action, http.StatusOK, gin.H{"action": action}, nil)
	}
}

func (s *Server) handleListReactions() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID, err := uuid.Parse(c.Param("messageID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid message id", http.StatusBadRequest))
			return
		}

		reactions, err := s.ReactionService.ListForMessage(messageID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Reactions retrieved successfully", http.StatusOK, reactions, nil)
	}
}

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}

		page, pageSize := paginationParams(c)
		convs, err := s.MessageService.ListConversations(userID, page, pageSize)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Conversations retrieved successfully", http.StatusOK, convs, nil)
	}
}

func (s *Server) handleUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}

		count, err := s.MessageService.UnreadCount(userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Unread count retrieved successfully", http.StatusOK, gin.H{"unread": count}, nil)
	}
}

func (s *Server) handleGetOnlineUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.AuthRepository.ListOnlineUsers()
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		out := make([]models.UserResponse, 0, len(users))
		for i := range users {
			out = append(out, users[i].Response())
		}
		response.JSON(c, "Online users retrieved successfully", http.StatusOK, out, nil)
	}
}

func paramUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func paginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
