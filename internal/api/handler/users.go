package handler

import (
	"errors"
	"net/http"

	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// Profile returns the authenticated user's own profile.
func (h *Handler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c).Public()})
}

// UserProfile returns another user's public profile.
func (h *Handler) UserProfile(c *gin.Context) {
	user, err := h.Storage.GetUserByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Public()})
}

type updateProfileRequest struct {
	Username       *string   `json:"username"`
	PhotoURL       *string   `json:"photoUrl"`
	Gender         *string   `json:"gender"`
	Age            *int      `json:"age"`
	MeetingType    *string   `json:"meetingType"`
	Description    *string   `json:"description"`
	Interests      *[]string `json:"interests"`
	TelegramChatID *string   `json:"telegramChatId"`
}

// UpdateProfile applies a partial update to the authenticated user's profile.
// Only fields present in the body change.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body"})
		return
	}

	user := currentUser(c)

	if req.Username != nil && *req.Username != user.Username {
		if existing, err := h.Storage.GetUserByUsername(*req.Username); err == nil && existing.ID != user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username already taken"})
			return
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
			return
		}
		user.Username = *req.Username
	}
	if req.PhotoURL != nil {
		user.PhotoURL = *req.PhotoURL
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.MeetingType != nil {
		user.MeetingType = *req.MeetingType
	}
	if req.Description != nil {
		user.Description = *req.Description
	}
	if req.Interests != nil {
		user.Interests = pq.StringArray(*req.Interests)
	}
	if req.TelegramChatID != nil {
		user.TelegramChatID = *req.TelegramChatID
	}

	if err := h.Storage.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Public()})
}

type searchRequest struct {
	Page         int      `json:"page"`
	PageSize     int      `json:"pageSize"`
	Gender       []string `json:"gender"`
	MeetingTypes []string `json:"meetingTypes"`
	MinAge       int      `json:"minAge"`
	MaxAge       int      `json:"maxAge"`
}

// SearchUsers pages through profiles matching the filters. The requesting
// user is always excluded from the results.
func (h *Handler) SearchUsers(c *gin.Context) {
	req := searchRequest{Page: 1, PageSize: 20, MinAge: 18, MaxAge: 99}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body"})
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	users, total, err := h.Storage.SearchUsers(models.UserSearch{
		RequesterID:  currentUser(c).ID,
		Genders:      req.Gender,
		MeetingTypes: req.MeetingTypes,
		MinAge:       req.MinAge,
		MaxAge:       req.MaxAge,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "search failed"})
		return
	}

	results := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public())
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"users":    results,
		"total":    total,
		"page":     req.Page,
		"pageSize": req.PageSize,
	})
}
