package handler

import (
	"datelink/backend/internal/chathub"
	"datelink/backend/internal/config"
	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey  = "authUser"
	ctxTokenKey = "authToken"
)

// Handler carries the handlers' dependencies.
type Handler struct {
	Hub     *chathub.Hub
	Storage storage.Storage
	Config  *config.Config
}

func NewHandler(hub *chathub.Hub, s storage.Storage, cfg *config.Config) *Handler {
	return &Handler{Hub: hub, Storage: s, Config: cfg}
}

// currentUser returns the user placed in the context by AuthRequired.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// currentToken returns the raw token placed in the context by AuthRequired.
func currentToken(c *gin.Context) string {
	v, ok := c.Get(ctxTokenKey)
	if !ok {
		return ""
	}
	token, _ := v.(string)
	return token
}
