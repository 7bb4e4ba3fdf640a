package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamhive/account-service/internal/config"
	domainErrors "github.com/streamhive/account-service/internal/domain/errors"
	"github.com/streamhive/account-service/internal/domain/models"
	handlerHTTP "github.com/streamhive/account-service/internal/handler/http"
	"github.com/streamhive/account-service/internal/service"
	"github.com/streamhive/account-service/internal/utils/jwt"
)

type testEnv struct {
	router       *gin.Engine
	tokenManager *jwt.TokenManager
	userRepo     *MockUserRepository
	password     *MockPasswordService
	media        *MockMediaStorage
	publisher    *MockEventPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{SecureCookies: false},
		JWT: config.JWTConfig{
			AccessTokenSecret:  "test-access-secret",
			RefreshTokenSecret: "test-refresh-secret",
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    24 * time.Hour,
			Issuer:             "account-service-test",
		},
	}

	tokenManager, err := jwt.NewTokenManager(&cfg.JWT)
	require.NoError(t, err)

	env := &testEnv{
		tokenManager: tokenManager,
		userRepo:     new(MockUserRepository),
		password:     new(MockPasswordService),
		media:        new(MockMediaStorage),
		publisher:    new(MockEventPublisher),
	}

	logger := zap.NewNop()
	authService := service.NewAuthService(logger, env.userRepo, env.password, env.media, tokenManager, env.publisher)
	userService := service.NewUserService(logger, env.userRepo, env.password, env.media, env.publisher)
	env.router = handlerHTTP.SetupRouter(authService, userService, tokenManager, env.userRepo, cfg, logger)

	return env
}

func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) authorize(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := env.tokenManager.GenerateAccessToken(user)
	require.NoError(t, err)
	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	return token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, fmt.Sprintf("%s.png", name))
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func testUser() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Username:     "newuser",
		Email:        "newuser@example.com",
		FullName:     "New User",
		PasswordHash: "hashed-password",
		AvatarURL:    "https://media.test/avatar/a.png",
	}
}

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("FindByUsernameOrEmail", mock.Anything, "newuser", "newuser@example.com").
		Return(nil, domainErrors.ErrUserNotFound).Once()
	env.media.On("Upload", mock.Anything, "avatar", mock.Anything, mock.Anything, mock.Anything).
		Return("https://media.test/avatar/a.png", nil).Once()
	env.password.On("HashPassword", "password123").Return("hashed-password", nil).Once()
	env.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Once()
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := multipartRequest(t, http.MethodPost, "/api/v1/user/register",
		map[string]string{
			"username": "NewUser",
			"email":    "newuser@example.com",
			"fullName": "New User",
			"password": "password123",
		},
		map[string][]byte{"avatar": []byte("avatar-bytes")},
	)
	rec := env.serve(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "newuser", data["username"])
	assert.Equal(t, "https://media.test/avatar/a.png", data["avatar_url"])
	// Credentials never leave the service.
	assert.NotContains(t, rec.Body.String(), "hashed-password")
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "refresh_token")
}

func TestRegister_MissingAvatar(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/user/register",
		map[string]string{
			"username": "newuser",
			"email":    "newuser@example.com",
			"fullName": "New User",
			"password": "password123",
		},
		nil,
	)
	rec := env.serve(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	existing := &models.User{ID: uuid.New(), Username: "newuser", Email: "other@example.com"}
	env.userRepo.On("FindByUsernameOrEmail", mock.Anything, "newuser", "newuser@example.com").
		Return(existing, nil).Once()

	req := multipartRequest(t, http.MethodPost, "/api/v1/user/register",
		map[string]string{
			"username": "newuser",
			"email":    "newuser@example.com",
			"fullName": "New User",
			"password": "password123",
		},
		map[string][]byte{"avatar": []byte("avatar-bytes")},
	)
	rec := env.serve(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	env.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UploadFailure(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("FindByUsernameOrEmail", mock.Anything, "newuser", "newuser@example.com").
		Return(nil, domainErrors.ErrUserNotFound).Once()
	env.media.On("Upload", mock.Anything, "avatar", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError).Once()

	req := multipartRequest(t, http.MethodPost, "/api/v1/user/register",
		map[string]string{
			"username": "newuser",
			"email":    "newuser@example.com",
			"fullName": "New User",
			"password": "password123",
		},
		map[string][]byte{"avatar": []byte("avatar-bytes")},
	)
	rec := env.serve(req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	env.userRepo.On("FindByUsernameOrEmail", mock.Anything, "newuser", "").
		Return(user, nil).Once()
	env.password.On("CheckPasswordHash", "password123", "hashed-password").
		Return(true, nil).Once()
	env.userRepo.On("UpdateRefreshToken", mock.Anything, user.ID, mock.AnythingOfType("*string")).
		Return(nil).Once()
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := env.serve(jsonRequest(t, http.MethodPost, "/api/v1/user/login",
		gin.H{"username": "newuser", "password": "password123"}))

	require.Equal(t, http.StatusOK, rec.Code)

	cookieNames := map[string]bool{}
	for _, cookie := range rec.Result().Cookies() {
		cookieNames[cookie.Name] = cookie.HttpOnly
	}
	assert.True(t, cookieNames["accessToken"])
	assert.True(t, cookieNames["refreshToken"])

	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	tokens := data["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	env.userRepo.On("FindByUsernameOrEmail", mock.Anything, "newuser", "").
		Return(user, nil).Once()
	env.password.On("CheckPasswordHash", "wrong", "hashed-password").
		Return(false, nil).Once()

	rec := env.serve(jsonRequest(t, http.MethodPost, "/api/v1/user/login",
		gin.H{"username": "newuser", "password": "wrong"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	env.userRepo.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	env.userRepo.On("FindByUsernameOrEmail", mock.Anything, "ghost", "").
		Return(nil, domainErrors.ErrUserNotFound).Once()

	rec := env.serve(jsonRequest(t, http.MethodPost, "/api/v1/user/login",
		gin.H{"username": "ghost", "password": "password123"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshToken_FromCookie(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	refreshToken, err := env.tokenManager.GenerateRefreshToken(user.ID.String())
	require.NoError(t, err)
	user.RefreshToken = &refreshToken

	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	env.userRepo.On("UpdateRefreshToken", mock.Anything, user.ID, mock.AnythingOfType("*string")).
		Return(nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/generate-accessToken", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
	rec := env.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	tokens := data["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
}

func TestRefreshToken_FromBody(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	refreshToken, err := env.tokenManager.GenerateRefreshToken(user.ID.String())
	require.NoError(t, err)
	user.RefreshToken = &refreshToken

	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
	env.userRepo.On("UpdateRefreshToken", mock.Anything, user.ID, mock.AnythingOfType("*string")).
		Return(nil).Once()

	rec := env.serve(jsonRequest(t, http.MethodPost, "/api/v1/user/generate-accessToken",
		gin.H{"refresh_token": refreshToken}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshToken_RotatedOut(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	presented, err := env.tokenManager.GenerateRefreshToken(user.ID.String())
	require.NoError(t, err)
	stored := "older-rotated-token"
	user.RefreshToken = &stored

	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/generate-accessToken", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: presented})
	rec := env.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.userRepo.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_ClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	env.userRepo.On("UpdateRefreshToken", mock.Anything, user.ID, (*string)(nil)).
		Return(nil).Once()
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, cookie := range rec.Result().Cookies() {
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
	env.userRepo.AssertExpectations(t)
}

func TestUserDetails_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(httptest.NewRequest(http.MethodGet, "/api/v1/user/user-details", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserDetails_BearerToken(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/user-details", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, user.Username, data["username"])
	assert.Equal(t, user.Email, data["email"])
}

func TestUserDetails_CookieToken(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/user-details", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	rec := env.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserDetails_TokenForUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	token, err := env.tokenManager.GenerateAccessToken(user)
	require.NoError(t, err)
	env.userRepo.On("FindByID", mock.Anything, user.ID).
		Return(nil, domainErrors.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/user-details", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserDetails_RefreshTokenRejectedAsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()

	refreshToken, err := env.tokenManager.GenerateRefreshToken(user.ID.String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/user-details", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	rec := env.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdatePassword_Success(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	env.password.On("CheckPasswordHash", "old-password", "hashed-password").
		Return(true, nil).Once()
	env.password.On("HashPassword", "new-password").Return("new-hash", nil).Once()
	env.userRepo.On("UpdatePasswordHash", mock.Anything, user.ID, "new-hash").
		Return(nil).Once()
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/updatePassword",
		gin.H{"oldPassword": "old-password", "newPassword": "new-password"})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.userRepo.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePassword_WrongOldPassword(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	env.password.On("CheckPasswordHash", "wrong", "hashed-password").
		Return(false, nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/v1/user/updatePassword",
		gin.H{"oldPassword": "wrong", "newPassword": "new-password"})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.userRepo.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateDetails_AppliesOnlyProvidedFields(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	updated := &models.User{ID: user.ID, Username: user.Username, Email: user.Email, FullName: "Renamed User"}
	env.userRepo.On("UpdateProfile", mock.Anything, user.ID, mock.MatchedBy(func(req models.UpdateProfileRequest) bool {
		return req.Username == nil && req.Email == nil &&
			req.FullName != nil && *req.FullName == "Renamed User"
	})).Return(updated, nil).Once()
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := jsonRequest(t, http.MethodPut, "/api/v1/user/update-details",
		gin.H{"fullName": " Renamed User "})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Renamed User", data["full_name"])
	env.userRepo.AssertExpectations(t)
}

func TestUpdateDetails_NoFields(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	req := jsonRequest(t, http.MethodPut, "/api/v1/user/update-details", gin.H{})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAvatar_Success(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	updated := &models.User{ID: user.ID, Username: user.Username, AvatarURL: "https://media.test/avatar/new.png"}
	env.media.On("Upload", mock.Anything, "avatar", mock.Anything, mock.Anything, mock.Anything).
		Return("https://media.test/avatar/new.png", nil).Once()
	env.userRepo.On("UpdateAvatarURL", mock.Anything, user.ID, "https://media.test/avatar/new.png").
		Return(updated, nil).Once()

	req := multipartRequest(t, http.MethodPut, "/api/v1/user/update-avatar",
		nil, map[string][]byte{"avatar": []byte("new-avatar-bytes")})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "https://media.test/avatar/new.png", data["avatar_url"])
}

func TestUpdateAvatar_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	req := multipartRequest(t, http.MethodPut, "/api/v1/user/update-avatar", nil, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.media.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateCoverImage_UploadFailure(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	token := env.authorize(t, user)

	env.media.On("Upload", mock.Anything, "cover", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError).Once()

	req := multipartRequest(t, http.MethodPut, "/api/v1/user/update-coverimage",
		nil, map[string][]byte{"coverImage": []byte("new-cover-bytes")})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.serve(req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env.userRepo.AssertNotCalled(t, "UpdateCoverImageURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ok"))
}
