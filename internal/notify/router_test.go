package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-chat/internal/mocks"
	"community-chat/internal/models"
	"community-chat/internal/ws"
)

type dispatcherSpy struct {
	mu    sync.Mutex
	sends []spySend
}

type spySend struct {
	connID  string
	event   string
	payload interface{}
}

func (d *dispatcherSpy) Send(connID string, event string, payload interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sends = append(d.sends, spySend{connID: connID, event: event, payload: payload})
}

func TestIsHelpRequest(t *testing.T) {
	assert.True(t, IsHelpRequest(models.RoleStudent, "I have an Interview tomorrow"))
	assert.True(t, IsHelpRequest(models.RoleStudent, "need some GUIDANCE"))
	assert.False(t, IsHelpRequest(models.RoleStudent, "nice weather today"))
	assert.False(t, IsHelpRequest(models.RoleProfessional, "can anyone help"))
	assert.False(t, IsHelpRequest("", "help"))
}

func TestNotifyTargetsConnectedProfessionals(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	companies := new(mocks.CompanyRepositoryMock)
	registry := ws.NewRegistry()
	spy := new(dispatcherSpy)
	router := NewRouter(users, companies, registry, spy)

	registry.Register(ws.ConnInfo{ConnID: "author", UserID: "10", CompanyID: 1})
	registry.Register(ws.ConnInfo{ConnID: "pro", UserID: "20", UserEmail: "pro@acme.com", CompanyID: 1})
	registry.Register(ws.ConnInfo{ConnID: "other-student", UserID: "30", CompanyID: 1})
	registry.Register(ws.ConnInfo{ConnID: "elsewhere", UserID: "40", UserEmail: "pro2@acme.com", CompanyID: 2})

	companies.On("GetCompany", mock.Anything, 1).Return(models.Company{ID: 1, Name: "Acme"}, nil).Once()
	users.On("FindByRoleAndCompany", mock.Anything, models.RoleProfessional, "Acme").
		Return([]models.User{{ID: 20, Email: "pro@acme.com"}, {ID: 40, Email: "pro2@acme.com"}}, nil).Once()

	msg := models.Message{ID: 7, CompanyID: 1, Text: "interview prep?", UserID: "10", UserName: "Sam", UserRole: models.RoleStudent}
	router.Notify(context.Background(), msg, "author")

	require.Len(t, spy.sends, 1)
	assert.Equal(t, "pro", spy.sends[0].connID)
	assert.Equal(t, models.EventHelpRequest, spy.sends[0].event)

	payload, ok := spy.sends[0].payload.(models.HelpRequest)
	require.True(t, ok)
	assert.Equal(t, "help-request", payload.Type)
	assert.Equal(t, "Acme", payload.CompanyName)
	assert.Equal(t, "Sam", payload.StudentName)
	assert.Equal(t, 7, payload.Message.ID)

	users.AssertExpectations(t)
	companies.AssertExpectations(t)
}

func TestNotifySkipsNonHelpMessages(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	companies := new(mocks.CompanyRepositoryMock)
	spy := new(dispatcherSpy)
	router := NewRouter(users, companies, ws.NewRegistry(), spy)

	msg := models.Message{CompanyID: 1, Text: "lunch anyone", UserRole: models.RoleStudent}
	router.Notify(context.Background(), msg, "author")

	assert.Empty(t, spy.sends)
	companies.AssertNotCalled(t, "GetCompany", mock.Anything, mock.Anything)
}

func TestNotifySwallowsLookupFailure(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	companies := new(mocks.CompanyRepositoryMock)
	spy := new(dispatcherSpy)
	router := NewRouter(users, companies, ws.NewRegistry(), spy)

	companies.On("GetCompany", mock.Anything, 1).Return(models.Company{}, assert.AnError).Once()

	msg := models.Message{CompanyID: 1, Text: "help", UserRole: models.RoleStudent}
	router.Notify(context.Background(), msg, "author")

	assert.Empty(t, spy.sends)
	companies.AssertExpectations(t)
}

func TestNotifyExcludesAuthorOnOtherConnection(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	companies := new(mocks.CompanyRepositoryMock)
	registry := ws.NewRegistry()
	spy := new(dispatcherSpy)
	router := NewRouter(users, companies, registry, spy)

	registry.Register(ws.ConnInfo{ConnID: "phone", UserID: "10", CompanyID: 1})
	registry.Register(ws.ConnInfo{ConnID: "laptop", UserID: "10", CompanyID: 1})

	companies.On("GetCompany", mock.Anything, 1).Return(models.Company{ID: 1, Name: "Acme"}, nil).Once()
	users.On("FindByRoleAndCompany", mock.Anything, models.RoleProfessional, "Acme").
		Return([]models.User{{ID: 10}}, nil).Once()

	msg := models.Message{CompanyID: 1, Text: "help", UserID: "10", UserRole: models.RoleStudent}
	router.Notify(context.Background(), msg, "phone")

	assert.Empty(t, spy.sends)
}
