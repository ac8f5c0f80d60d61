package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-chat/internal/mocks"
	"community-chat/internal/models"
	"community-chat/internal/repositories"
	"community-chat/internal/ws"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/messages/:company_id", handler.ListMessages)
	r.POST("/api/messages", handler.PostMessage)
	r.PUT("/api/messages/:message_id", handler.EditMessage)
	r.DELETE("/api/messages/:message_id", handler.DeleteMessage)
	r.DELETE("/api/messages/clear/:company_id", handler.ClearCompanyMessages)
	r.DELETE("/api/groups/:group_id/messages", handler.ClearGroupMessages)
	return r
}

func testHub() *ws.Hub {
	return ws.NewHub(ws.NewRegistry())
}

func TestListMessagesSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("ListRecent", mock.Anything, 4, repositories.DefaultRecentLimit).
		Return([]models.Message{{ID: 1, CompanyID: 4, Text: "hello"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "hello", resp[0].Text)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesEmptyIsArray(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("ListRecent", mock.Anything, 4, repositories.DefaultRecentLimit).
		Return(([]models.Message)(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListMessagesInvalidID(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), nil, testHub(), nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("CreateMessage", mock.Anything, 4, "hi", "u1", "Sam", "student").
		Return(models.Message{ID: 9, CompanyID: 4, Text: "hi", UserID: "u1"}, nil).Once()

	body := bytes.NewBufferString(`{"text":"hi","userId":"u1","userName":"Sam","userRole":"student","companyId":4}`)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageMissingFields(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), nil, testHub(), nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "all fields are required")
}

func TestEditMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("EditMessage", mock.Anything, 9, "u1", "new text").
		Return(models.Message{ID: 9, CompanyID: 4, Text: "new text", IsEdited: true}, nil).Once()

	body := bytes.NewBufferString(`{"text":"new text","userId":"u1"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/messages/9", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.IsEdited)
	messageRepo.AssertExpectations(t)
}

func TestEditMessageNotAuthor(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("EditMessage", mock.Anything, 9, "intruder", "x").
		Return(models.Message{}, repositories.ErrNotMessageAuthor).Once()

	body := bytes.NewBufferString(`{"text":"x","userId":"intruder"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/messages/9", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("EditMessage", mock.Anything, 404, "u1", "x").
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	body := bytes.NewBufferString(`{"text":"x","userId":"u1"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/messages/404", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditDeletedMessageRejected(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("EditMessage", mock.Anything, 9, "u1", "x").
		Return(models.Message{}, repositories.ErrMessageDeleted).Once()

	body := bytes.NewBufferString(`{"text":"x","userId":"u1"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/messages/9", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")
}

func TestDeleteMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, CompanyID: 4, UserID: "u1"}, nil).Once()
	messageRepo.On("SoftDeleteMessage", mock.Anything, 9, "u1").Return(nil).Once()

	body := bytes.NewBufferString(`{"userId":"u1"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/messages/9", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Message deleted successfully")
	messageRepo.AssertExpectations(t)
}

func TestDeleteMessageAlreadyDeleted(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, CompanyID: 4, UserID: "u1"}, nil).Once()
	messageRepo.On("SoftDeleteMessage", mock.Anything, 9, "u1").
		Return(repositories.ErrMessageDeleted).Once()

	body := bytes.NewBufferString(`{"userId":"u1"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/messages/9", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already deleted")
}

func TestClearCompanyMessages(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, nil, testHub(), nil)
	router := setupMessageRouter(handler)

	messageRepo.On("ClearMessages", mock.Anything, 4).Return(int64(12), nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/messages/clear/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 12, resp["deletedCount"])
	messageRepo.AssertExpectations(t)
}

func TestClearGroupMessages(t *testing.T) {
	groupMessageRepo := new(mocks.GroupMessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), groupMessageRepo, testHub(), nil)
	router := setupMessageRouter(handler)

	groupMessageRepo.On("ClearMessages", mock.Anything, 7).Return(int64(3), nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/groups/7/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groupMessageRepo.AssertExpectations(t)
}
