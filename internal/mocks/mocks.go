package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"community-chat/internal/models"
	"community-chat/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, companyID int, text, userID, userName, userRole string) (models.Message, error) {
	args := m.Called(ctx, companyID, text, userID, userName, userRole)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context, companyID int, limit int) ([]models.Message, error) {
	args := m.Called(ctx, companyID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int, userID, newText string) (models.Message, error) {
	args := m.Called(ctx, messageID, userID, newText)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDeleteMessage(ctx context.Context, messageID int, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ClearMessages(ctx context.Context, companyID int) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, name, description, creator, groupType string, members []string) (models.Group, error) {
	args := m.Called(ctx, name, description, creator, groupType, members)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, email string) ([]models.Group, error) {
	args := m.Called(ctx, email)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, email string) (bool, error) {
	args := m.Called(ctx, groupID, email)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) RenameGroup(ctx context.Context, groupID int, creator, name string) (models.Group, error) {
	args := m.Called(ctx, groupID, creator, name)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) AddMembers(ctx context.Context, groupID int, actor string, members []string) (models.Group, error) {
	args := m.Called(ctx, groupID, actor, members)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) LeaveGroup(ctx context.Context, groupID int, email string) (repositories.LeaveResult, error) {
	args := m.Called(ctx, groupID, email)
	var result repositories.LeaveResult
	if val := args.Get(0); val != nil {
		result = val.(repositories.LeaveResult)
	}
	return result, args.Error(1)
}

type GroupMessageRepositoryMock struct {
	mock.Mock
}

func (m *GroupMessageRepositoryMock) CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error) {
	args := m.Called(ctx, msg)
	var saved models.GroupMessage
	if val := args.Get(0); val != nil {
		saved = val.(models.GroupMessage)
	}
	return saved, args.Error(1)
}

func (m *GroupMessageRepositoryMock) ListRecent(ctx context.Context, groupID int, limit int) ([]models.GroupMessage, error) {
	args := m.Called(ctx, groupID, limit)
	var msgs []models.GroupMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.GroupMessage)
	}
	return msgs, args.Error(1)
}

func (m *GroupMessageRepositoryMock) GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *GroupMessageRepositoryMock) EditGroupMessage(ctx context.Context, messageID int, userID, newText string) (models.GroupMessage, error) {
	args := m.Called(ctx, messageID, userID, newText)
	var msg models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *GroupMessageRepositoryMock) SoftDeleteGroupMessage(ctx context.Context, messageID int, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *GroupMessageRepositoryMock) ClearMessages(ctx context.Context, groupID int) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) FindByRoleAndCompany(ctx context.Context, role, companyName string) ([]models.User, error) {
	args := m.Called(ctx, role, companyName)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type CompanyRepositoryMock struct {
	mock.Mock
}

func (m *CompanyRepositoryMock) ListCompanies(ctx context.Context) ([]models.Company, error) {
	args := m.Called(ctx)
	var companies []models.Company
	if val := args.Get(0); val != nil {
		companies = val.([]models.Company)
	}
	return companies, args.Error(1)
}

func (m *CompanyRepositoryMock) GetCompany(ctx context.Context, companyID int) (models.Company, error) {
	args := m.Called(ctx, companyID)
	var company models.Company
	if val := args.Get(0); val != nil {
		company = val.(models.Company)
	}
	return company, args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.GroupMessageRepository = (*GroupMessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.CompanyRepository = (*CompanyRepositoryMock)(nil)
