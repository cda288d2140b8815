package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/server/response"
)

// handleUploadAttachment stores the file and hands back a URL the
// client can attach to a subsequent message.
func (s *Server) handleUploadAttachment() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("userID not found in context", http.StatusInternalServerError))
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("file is required", http.StatusBadRequest))
			return
		}

		url, contentType, err := s.MediaService.UploadAttachment(c.Request.Context(), fileHeader, userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("unable to upload attachment", http.StatusInternalServerError))
			return
		}
		response.JSON(c, "Attachment uploaded successfully", http.StatusCreated, gin.H{
			"url":          url,
			"content_type": contentType,
		}, nil)
	}
}
