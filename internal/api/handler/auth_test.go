package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"datelink/backend/internal/api/handler"
	"datelink/backend/internal/chathub"
	"datelink/backend/internal/config"
	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(s storage.Storage, hub *chathub.Hub) (*handler.Handler, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	h := handler.NewHandler(hub, s, &config.Config{JWTSecret: "test-secret"})

	r := gin.New()
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.AuthRequired(), h.Logout)
	auth.GET("/verify", h.AuthRequired(), h.Verify)

	users := api.Group("/users", h.AuthRequired())
	users.GET("/profile", h.Profile)
	users.POST("/search", h.SearchUsers)

	messages := api.Group("/messages", h.AuthRequired())
	messages.GET("/conversations", h.ListConversations)
	messages.GET("/conversation/:userId", h.GetConversation)
	messages.POST("/send", h.SendMessage)

	r.GET("/ws", h.ServeWebSocket)

	return h, r
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_CreatesUserAndToken(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByUsername", "alice").Return(nil, storage.ErrNotFound)
	s.On("CreateUser", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.User).ID = "u1"
	}).Return(nil)
	s.On("SaveToken", "u1", mock.AnythingOfType("string")).Return(nil)
	s.On("PublishNewUser", mock.AnythingOfType("*models.User")).Return(nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"pinCode":  "1234",
		"gender":   "female",
		"age":      29,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Token string               `json:"token"`
			User  models.PublicProfile `json:"user"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "u1", resp.Data.User.ID)
	s.AssertExpectations(t)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByUsername", "alice").Return(&models.User{ID: "u1", Username: "alice"}, nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "pinCode": "1234"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	s.AssertNotCalled(t, "CreateUser", mock.Anything)
}

func TestLogin_IssuesTokenAndPrunesOthers(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	user := &models.User{ID: "u1", Username: "alice", PinHash: string(hash)}

	s := new(MockStorage)
	s.On("GetUserByUsername", "alice").Return(user, nil)
	s.On("SaveToken", "u1", mock.AnythingOfType("string")).Return(nil)
	s.On("DeleteOtherTokens", "u1", mock.AnythingOfType("string")).Return(nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "pinCode": "1234"})

	assert.Equal(t, http.StatusOK, w.Code)
	s.AssertCalled(t, "DeleteOtherTokens", "u1", mock.AnythingOfType("string"))
}

func TestLogin_WrongPin(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	user := &models.User{ID: "u1", Username: "alice", PinHash: string(hash)}

	s := new(MockStorage)
	s.On("GetUserByUsername", "alice").Return(user, nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "pinCode": "9999"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	s.AssertNotCalled(t, "SaveToken", mock.Anything, mock.Anything)
}

func TestLogout_DeletesToken(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByToken", "tok").Return(&models.User{ID: "u1", Username: "alice"}, nil)
	s.On("DeleteToken", "tok").Return(nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodPost, "/api/auth/logout", "tok", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	s.AssertCalled(t, "DeleteToken", "tok")
}

func TestAuthRequired_MissingToken(t *testing.T) {
	s := new(MockStorage)
	_, r := newTestHandler(s, nil)

	w := doJSON(r, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	s.AssertNotCalled(t, "GetUserByToken", mock.Anything)
}

func TestAuthRequired_UnknownToken(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByToken", "stale").Return(nil, storage.ErrNotFound)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodGet, "/api/users/profile", "stale", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_ValidToken(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByToken", "tok").Return(&models.User{ID: "u1", Username: "alice"}, nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodGet, "/api/users/profile", "tok", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestServeWebSocket_RejectsBeforeUpgrade(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByToken", "bad").Return(nil, storage.ErrNotFound)

	_, r := newTestHandler(s, nil)

	w := doJSON(r, http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/ws?token=bad", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_RejectsBanned(t *testing.T) {
	s := new(MockStorage)
	s.On("GetUserByToken", "tok").Return(&models.User{ID: "u1", Username: "alice"}, nil)
	s.On("IsUserBanned", "u1").Return(true, nil)

	_, r := newTestHandler(s, nil)
	w := doJSON(r, http.MethodGet, "/ws?token=tok", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
