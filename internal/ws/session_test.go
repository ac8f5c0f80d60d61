package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-chat/internal/mocks"
	"community-chat/internal/models"
)

type notifierSpy struct {
	calls []notifyCall
}

type notifyCall struct {
	msg    models.Message
	connID string
}

func (n *notifierSpy) Notify(ctx context.Context, msg models.Message, authorConnID string) {
	n.calls = append(n.calls, notifyCall{msg: msg, connID: authorConnID})
}

func clientEvent(t *testing.T, action string, payload interface{}) models.ClientEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.ClientEvent{Type: action, Payload: raw}
}

func TestJoinCompanyBroadcastsPresence(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	session := NewSession(hub, registry, nil, nil, nil, nil)

	conn := &fakeConn{}
	registry.Register(ConnInfo{ConnID: "c1", UserID: "u1", UserName: "Sam"})
	hub.AddClient("c1", conn)

	session.HandleEvent(context.Background(), "c1", clientEvent(t, "join-company", map[string]int{"companyId": 4}))

	info, ok := registry.Get("c1")
	require.True(t, ok)
	assert.Equal(t, 4, info.CompanyID)

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventOnlineUsers, events[0].Type)
}

func TestSendMessagePersistsBroadcastsNotifies(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	messageRepo := new(mocks.MessageRepositoryMock)
	spy := &notifierSpy{}
	session := NewSession(hub, registry, messageRepo, nil, nil, spy)

	conn := &fakeConn{}
	registry.Register(ConnInfo{ConnID: "c1", UserID: "u1"})
	hub.AddClient("c1", conn)
	hub.Join(CompanyRoom(4), "c1")

	saved := models.Message{ID: 9, CompanyID: 4, Text: "help please", UserID: "u1", UserRole: models.RoleStudent}
	messageRepo.On("CreateMessage", mock.Anything, 4, "help please", "u1", "Sam", models.RoleStudent).
		Return(saved, nil).Once()

	session.HandleEvent(context.Background(), "c1", clientEvent(t, "send-message", map[string]interface{}{
		"text": "help please", "userId": "u1", "userName": "Sam", "userRole": models.RoleStudent, "companyId": 4,
	}))

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventNewMessage, events[0].Type)

	require.Len(t, spy.calls, 1)
	assert.Equal(t, 9, spy.calls[0].msg.ID)
	assert.Equal(t, "c1", spy.calls[0].connID)
	messageRepo.AssertExpectations(t)
}

func TestSendMessageStoreErrorSuppressesBroadcast(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	messageRepo := new(mocks.MessageRepositoryMock)
	spy := &notifierSpy{}
	session := NewSession(hub, registry, messageRepo, nil, nil, spy)

	conn := &fakeConn{}
	hub.AddClient("c1", conn)
	hub.Join(CompanyRoom(4), "c1")

	messageRepo.On("CreateMessage", mock.Anything, 4, "hi", "u1", "", "").
		Return(models.Message{}, assert.AnError).Once()

	session.HandleEvent(context.Background(), "c1", clientEvent(t, "send-message", map[string]interface{}{
		"text": "hi", "userId": "u1", "companyId": 4,
	}))

	assert.Empty(t, conn.events(t))
	assert.Empty(t, spy.calls)
}

func TestSendGroupMessageResolvesMentions(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	groupMessageRepo := new(mocks.GroupMessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	session := NewSession(hub, registry, nil, groupMessageRepo, userRepo, nil)

	conn := &fakeConn{}
	hub.AddClient("c1", conn)
	hub.Join(GroupRoom(7), "c1")

	userRepo.On("ListUsers", mock.Anything).
		Return([]models.User{{ID: 3, Name: "Priya", Email: "priya@x.com"}}, nil).Once()
	groupMessageRepo.On("CreateGroupMessage", mock.Anything, mock.MatchedBy(func(msg models.GroupMessage) bool {
		return msg.GroupID == 7 && len(msg.Mentions) == 1 && msg.Mentions[0].UserName == "Priya"
	})).Return(models.GroupMessage{ID: 5, GroupID: 7, Text: "ping @Priya"}, nil).Once()

	session.HandleEvent(context.Background(), "c1", clientEvent(t, "send-group-message", map[string]interface{}{
		"text": "ping @Priya", "userId": "u1", "groupId": 7,
	}))

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventNewMessage, events[0].Type)
	groupMessageRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestEditMessageBroadcastsToStoredRoom(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	messageRepo := new(mocks.MessageRepositoryMock)
	session := NewSession(hub, registry, messageRepo, nil, nil, nil)

	conn := &fakeConn{}
	hub.AddClient("c1", conn)
	hub.Join(CompanyRoom(4), "c1")

	messageRepo.On("EditMessage", mock.Anything, 9, "u1", "fixed").
		Return(models.Message{ID: 9, CompanyID: 4, Text: "fixed", IsEdited: true}, nil).Once()

	// companyId in the payload is stale; the stored row decides the room
	session.HandleEvent(context.Background(), "c1", clientEvent(t, "edit-message", map[string]interface{}{
		"messageId": 9, "newText": "fixed", "userId": "u1", "companyId": 999,
	}))

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventMessageEdited, events[0].Type)
	messageRepo.AssertExpectations(t)
}

func TestDeleteMessageBroadcastsToStoredRoom(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	messageRepo := new(mocks.MessageRepositoryMock)
	session := NewSession(hub, registry, messageRepo, nil, nil, nil)

	conn := &fakeConn{}
	hub.AddClient("c1", conn)
	hub.Join(CompanyRoom(4), "c1")

	messageRepo.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, CompanyID: 4, UserID: "u1"}, nil).Once()
	messageRepo.On("SoftDeleteMessage", mock.Anything, 9, "u1").Return(nil).Once()

	session.HandleEvent(context.Background(), "c1", clientEvent(t, "delete-message", map[string]interface{}{
		"messageId": 9, "userId": "u1",
	}))

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventMessageDeleted, events[0].Type)
	messageRepo.AssertExpectations(t)
}

func TestClearCompanyChatOnlyBroadcasts(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	messageRepo := new(mocks.MessageRepositoryMock)
	session := NewSession(hub, registry, messageRepo, nil, nil, nil)

	conn := &fakeConn{}
	hub.AddClient("c1", conn)
	hub.Join(CompanyRoom(4), "c1")

	session.HandleEvent(context.Background(), "c1", clientEvent(t, "clear-company-chat", map[string]interface{}{
		"companyId": 4, "userId": "u1", "userName": "Sam",
	}))

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventChatCleared, events[0].Type)
	messageRepo.AssertNotCalled(t, "ClearMessages", mock.Anything, mock.Anything)
}

func TestDisconnectRebroadcastsPresence(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	session := NewSession(hub, registry, nil, nil, nil, nil)

	gone := &fakeConn{}
	stays := &fakeConn{}
	registry.Register(ConnInfo{ConnID: "gone", UserID: "u1"})
	registry.Register(ConnInfo{ConnID: "stays", UserID: "u2"})
	hub.AddClient("gone", gone)
	hub.AddClient("stays", stays)

	session.HandleEvent(context.Background(), "gone", clientEvent(t, "join-company", map[string]int{"companyId": 4}))
	session.HandleEvent(context.Background(), "stays", clientEvent(t, "join-company", map[string]int{"companyId": 4}))

	stays.mu.Lock()
	stays.frames = nil
	stays.mu.Unlock()

	session.HandleDisconnect("gone")

	_, ok := registry.Get("gone")
	assert.False(t, ok)

	events := stays.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventOnlineUsers, events[0].Type)

	var online []models.OnlineUser
	raw, err := json.Marshal(events[0].Payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &online))
	require.Len(t, online, 1)
	assert.Equal(t, "u2", online[0].UserID)
}
