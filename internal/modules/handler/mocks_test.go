package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/resolver"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, in service.CreateProjectInput) (*model.Project, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id uint, viewer *model.User) (*model.Project, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, gameName string, viewer *model.User) ([]*model.Project, error) {
	args := m.Called(ctx, gameName, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectService) Edit(ctx context.Context, in service.EditProjectInput) (*service.EditOutcome, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EditOutcome), args.Error(1)
}

type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) Create(ctx context.Context, in service.CreateVersionInput) (*model.Version, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionService) Get(ctx context.Context, id uint, viewer *model.User) (*model.Version, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionService) ListByProject(ctx context.Context, projectID uint, viewer *model.User) ([]*model.Version, error) {
	args := m.Called(ctx, projectID, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Version), args.Error(1)
}

func (m *MockVersionService) Edit(ctx context.Context, in service.EditVersionInput) (*service.EditOutcome, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EditOutcome), args.Error(1)
}

func (m *MockVersionService) RecordDownload(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) SetProjectStatus(ctx context.Context, in service.SetStatusInput) (*model.Project, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockStatusService) SetVersionStatus(ctx context.Context, in service.SetStatusInput) (*model.Version, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockStatusService) ProjectRestorable(ctx context.Context, p *model.Project) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockStatusService) VersionRestorable(ctx context.Context, v *model.Version) (bool, error) {
	args := m.Called(ctx, v)
	return args.Bool(0), args.Error(1)
}

type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) ListPending(ctx context.Context, in service.ListPendingInput) (*service.ListPendingOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListPendingOutput), args.Error(1)
}

func (m *MockApprovalService) Approve(ctx context.Context, id uint, approver *model.User) (*service.ApprovalResult, error) {
	args := m.Called(ctx, id, approver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApprovalResult), args.Error(1)
}

func (m *MockApprovalService) Deny(ctx context.Context, id uint, approver *model.User) (*service.ApprovalResult, error) {
	args := m.Called(ctx, id, approver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApprovalResult), args.Error(1)
}

type MockModsService struct {
	mock.Mock
}

func (m *MockModsService) Query(ctx context.Context, in service.ModsQueryInput) (*resolver.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resolver.Result), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, in service.CreateUserInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, rawToken string) (*model.User, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) IssueToken(ctx context.Context, userID uint, actor *model.User) (string, error) {
	args := m.Called(ctx, userID, actor)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) SetToken(ctx context.Context, userID uint, rawToken string) error {
	return m.Called(ctx, userID, rawToken).Error(0)
}

func (m *MockUserService) SetRoles(ctx context.Context, in service.SetRolesInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) Create(ctx context.Context, in service.CreateGameInput) (*model.Game, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Game), args.Error(1)
}

func (m *MockGameService) Get(ctx context.Context, name string) (*model.Game, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Game), args.Error(1)
}

func (m *MockGameService) List(ctx context.Context) ([]*model.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Game), args.Error(1)
}

func (m *MockGameService) AddCategory(ctx context.Context, in service.CategoryInput) (*model.Game, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Game), args.Error(1)
}

func (m *MockGameService) RemoveCategory(ctx context.Context, in service.CategoryInput) (*model.Game, int64, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*model.Game), args.Get(1).(int64), args.Error(2)
}

func (m *MockGameService) SetDefault(ctx context.Context, name string, actor *model.User) error {
	return m.Called(ctx, name, actor).Error(0)
}

func (m *MockGameService) Delete(ctx context.Context, name string, actor *model.User) error {
	return m.Called(ctx, name, actor).Error(0)
}

type MockGameVersionService struct {
	mock.Mock
}

func (m *MockGameVersionService) Create(ctx context.Context, in service.CreateGameVersionInput) (*model.GameVersion, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GameVersion), args.Error(1)
}

func (m *MockGameVersionService) Get(ctx context.Context, id uint) (*model.GameVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GameVersion), args.Error(1)
}

func (m *MockGameVersionService) List(ctx context.Context, gameName string) ([]*model.GameVersion, error) {
	args := m.Called(ctx, gameName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GameVersion), args.Error(1)
}

func (m *MockGameVersionService) SetDefault(ctx context.Context, id uint, actor *model.User) (*model.GameVersion, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GameVersion), args.Error(1)
}

func (m *MockGameVersionService) AddLink(ctx context.Context, in service.LinkInput) ([]*model.GameVersion, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GameVersion), args.Error(1)
}

func (m *MockGameVersionService) RemoveLink(ctx context.Context, in service.LinkInput) ([]*model.GameVersion, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GameVersion), args.Error(1)
}

func (m *MockGameVersionService) ExpandSupported(ctx context.Context, gameName string, ids []uint) ([]uint, error) {
	args := m.Called(ctx, gameName, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockGameVersionService) Resort(ctx context.Context, gameName string, actor *model.User) (int, error) {
	args := m.Called(ctx, gameName, actor)
	return args.Int(0), args.Error(1)
}

func (m *MockGameVersionService) ResortSync(ctx context.Context, gameName string) (*service.ResortReport, error) {
	args := m.Called(ctx, gameName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResortReport), args.Error(1)
}
