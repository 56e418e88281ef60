package server

import (
	goerrors "errors"
	"net/http"

	errs "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/models"
	"github.com/SkillSyncApp/SkillSyncServer/server/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleGetConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		convs, err := s.ChatService.GetConversations(userID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.JSON(c, "Conversations retrieved successfully", http.StatusOK, convs, nil)
	}
}

func (s *Server) handleGetConversationWith() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		otherID, err := uuid.Parse(c.Param("userId"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("Invalid userID format", http.StatusBadRequest))
			return
		}

		conv, err := s.ChatService.GetConversationWith(userID, otherID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.JSON(c, "Conversation retrieved successfully", http.StatusOK, conv, nil)
	}
}

func (s *Server) handleAddConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		otherID, err := uuid.Parse(c.Param("userId"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("Invalid userID format", http.StatusBadRequest))
			return
		}

		conv, created, err := s.ChatService.GetOrCreateConversationWith(userID, otherID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		payload := models.ConversationResponse{Conversation: conv, Created: created}
		message := "Conversation already exists"
		if created {
			message = "Conversation created successfully"
		}
		response.JSON(c, message, http.StatusOK, payload, nil)
	}
}

func (s *Server) handleGetMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("Invalid conversationID format", http.StatusBadRequest))
			return
		}

		msgs, err := s.ChatService.GetMessages(userID, conversationID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.JSON(c, "Messages retrieved successfully", http.StatusOK, msgs, nil)
	}
}

// handleSendMessage is the HTTP side of the canonical write path; realtime
// delivery to online participants happens inside the service the same way
// it does for socket-sent messages.
func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("Invalid conversationID format", http.StatusBadRequest))
			return
		}

		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("Invalid request body", http.StatusBadRequest))
			return
		}

		msg, err := s.ChatService.SendMessage(userID, conversationID, req.Content)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.JSON(c, "Message sent successfully", http.StatusOK, msg, nil)
	}
}

// handleGetUserPresence reports whether a user currently holds at least one
// open realtime connection.
func (s *Server) handleGetUserPresence() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := callerID(c); !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		userID, err := uuid.Parse(c.Param("userId"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("Invalid userID format", http.StatusBadRequest))
			return
		}

		exists, err := s.UserRepository.ExistsByID(userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		if !exists {
			response.JSON(c, "", http.StatusNotFound, nil, errs.New("user not found", http.StatusNotFound))
			return
		}

		response.JSON(c, "User presence retrieved successfully", http.StatusOK, gin.H{
			"user_id": userID,
			"online":  s.Hub.IsOnline(userID),
		}, nil)
	}
}

func respondServiceError(c *gin.Context, err error) {
	var apiErr *errs.Error
	if goerrors.As(err, &apiErr) {
		response.JSON(c, "", apiErr.Status, nil, apiErr)
		return
	}
	response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
}
