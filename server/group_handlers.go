package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
	"github.com/koinoniahq/koinonia/server/response"
)

func (s *Server) handleCreateGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}

		var req models.CreateGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		group, err := s.GroupService.CreateGroup(userID, req)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Group created successfully", http.StatusCreated, group, nil)
	}
}

func (s *Server) handleListGroups() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}

		page, pageSize := paginationParams(c)
		groups, err := s.GroupService.ListGroups(userID, page, pageSize)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Groups retrieved successfully", http.StatusOK, groups, nil)
	}
}

func (s *Server) handleUpdateGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid group id", http.StatusBadRequest))
			return
		}

		var req models.UpdateGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		group, err := s.GroupService.UpdateGroup(groupID, userID, req)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Group updated successfully", http.StatusOK, group, nil)
	}
}

func (s *Server) handleDeactivateGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid group id", http.StatusBadRequest))
			return
		}

		if err := s.GroupService.DeactivateGroup(groupID, userID); err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Group deactivated successfully", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleAddMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid group id", http.StatusBadRequest))
			return
		}

		var req models.AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		member, err := s.GroupService.AddMember(groupID, userID, req.UserID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Member added successfully", http.StatusCreated, member, nil)
	}
}

func (s *Server) handleRemoveMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid group id", http.StatusBadRequest))
			return
		}
		targetID, err := paramUint(c, "userID")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid user id", http.StatusBadRequest))
			return
		}

		if err := s.GroupService.RemoveMember(groupID, userID, targetID); err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Member removed successfully", http.StatusOK, nil, nil)
	}
}

func (s *Server) handlePostGroupMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid group id", http.StatusBadRequest))
			return
		}

		var req models.PostGroupMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid request body", http.StatusBadRequest))
			return
		}

		msg, err := s.GroupService.PostMessage(groupID, userID, req)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Message posted successfully", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleListGroupMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid group id", http.StatusBadRequest))
			return
		}

		page, pageSize := paginationParams(c)
		msgs, err := s.GroupService.ListMessages(groupID, userID, page, pageSize)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}
		response.JSON(c, "Group messages retrieved successfully", http.StatusOK, msgs, nil)
	}
}
