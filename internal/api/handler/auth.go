package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 30 * 24 * time.Hour

// generateToken mints a signed session token for the user. The token is also
// persisted in the tokens table: resolution always goes through the database,
// so logout revokes it immediately regardless of the JWT expiry.
func (h *Handler) generateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenLifetime).Unix(),
		"iss":     "datelink-api",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Config.JWTSecret))
}

type registerRequest struct {
	Username       string   `json:"username" binding:"required"`
	PinCode        string   `json:"pinCode" binding:"required"`
	PhotoURL       string   `json:"photoUrl"`
	Gender         string   `json:"gender"`
	Age            int      `json:"age"`
	MeetingType    string   `json:"meetingType"`
	Description    string   `json:"description"`
	Interests      []string `json:"interests"`
	TelegramChatID string   `json:"telegramChatId"`
}

// Register creates a profile, issues a session token and announces the new
// user to everyone watching the new-users room.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username and pinCode are required"})
		return
	}

	if _, err := h.Storage.GetUserByUsername(req.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username already taken"})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "registration failed"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PinCode), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "registration failed"})
		return
	}

	user := &models.User{
		Username:       req.Username,
		PinHash:        string(hash),
		PhotoURL:       req.PhotoURL,
		Gender:         req.Gender,
		Age:            req.Age,
		MeetingType:    req.MeetingType,
		Description:    req.Description,
		Interests:      pq.StringArray(req.Interests),
		TelegramChatID: req.TelegramChatID,
	}
	if err := h.Storage.CreateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "registration failed"})
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create token"})
		return
	}
	if err := h.Storage.SaveToken(user.ID, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create token"})
		return
	}

	if err := h.Storage.PublishNewUser(user); err != nil {
		log.Printf("Failed to announce new user %s: %v", user.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gin.H{"token": token, "user": user.Public()},
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	PinCode  string `json:"pinCode" binding:"required"`
}

// Login checks the credentials and issues a fresh token. The user's other
// tokens are deleted afterwards, so one device stays signed in at a time.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username and pinCode are required"})
		return
	}

	user, err := h.Storage.GetUserByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(req.PinCode)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create token"})
		return
	}
	if err := h.Storage.SaveToken(user.ID, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create token"})
		return
	}
	if err := h.Storage.DeleteOtherTokens(user.ID, token); err != nil {
		log.Printf("Failed to prune old tokens for %s: %v", user.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"token": token, "user": user.Public()},
	})
}

// Logout revokes the presented token.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Storage.DeleteToken(currentToken(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Verify confirms the token is still valid and returns its user.
func (h *Handler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c).Public()})
}

// AuthRequired resolves the bearer token against the tokens table and puts
// the user in the request context. The database is the source of truth, not
// the JWT signature: a deleted token is dead even if the JWT has not expired.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "session expired"})
			return
		}

		user, err := h.Storage.GetUserByToken(token)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "session expired"
			if !errors.Is(err, storage.ErrNotFound) {
				status = http.StatusInternalServerError
				msg = "authentication failed"
			}
			c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

// bearerToken extracts the opaque token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return token, token != ""
}
