package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/security"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

func (m *MockRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func newTestService(repo *MockRepository) *Service {
	return NewService(repo, NewValidator(), slog.Default())
}

func validCreateInput() CreateInput {
	return CreateInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
		IsActive: true,
	}
}

func TestService_Create(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	in := validCreateInput()

	mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, ErrNotFound)
	mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(nil, ErrNotFound)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.Email == in.Email && u.Username == in.Username && u.PasswordHash != in.Password
	})).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		u.ID = 7
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}).Return(nil)

	u, err := service.Create(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, 7, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.False(t, u.UpdatedAt.IsZero())
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser)
	assert.NotEqual(t, in.Password, u.PasswordHash)
	assert.True(t, security.VerifyPassword(in.Password, u.PasswordHash))

	mockRepo.AssertExpectations(t)
}

func TestService_Create_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	in := validCreateInput()

	mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(&User{ID: 1, Email: in.Email}, nil)

	_, err := service.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, ErrDuplicateEmail, err)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_DuplicateUsername(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	in := validCreateInput()

	mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, ErrNotFound)
	mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(&User{ID: 1, Username: in.Username}, nil)

	_, err := service.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, ErrDuplicateUsername, err)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_DuplicateOnInsert(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	in := validCreateInput()

	mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, ErrNotFound)
	mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(nil, ErrNotFound)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicate)

	_, err := service.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestService_Create_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	in := validCreateInput()

	mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, ErrNotFound)
	mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(nil, ErrNotFound)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("database error"))

	_, err := service.Create(context.Background(), in)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	assert.NotErrorIs(t, err, ErrDuplicate)
}

func TestService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *CreateInput)
	}{
		{name: "short username", modify: func(in *CreateInput) { in.Username = "ab" }},
		{name: "username with underscore", modify: func(in *CreateInput) { in.Username = "al_ice" }},
		{name: "bad email", modify: func(in *CreateInput) { in.Email = "not-an-email" }},
		{name: "short password", modify: func(in *CreateInput) { in.Password = "1234567" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			in := validCreateInput()
			tt.modify(&in)

			_, err := service.Create(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_GetByID_Absent(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, 42).Return(nil, ErrNotFound)

	u, err := service.GetByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestService_GetByID_Error(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, 42).Return(nil, errors.New("connection refused"))

	u, err := service.GetByID(context.Background(), 42)
	assert.Error(t, err)
	assert.Nil(t, u)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := security.HashPassword("password123")
	require.NoError(t, err)

	stored := &User{ID: 3, Username: "alice", PasswordHash: hash, IsActive: false}

	tests := []struct {
		name     string
		username string
		password string
		setup    func(m *MockRepository)
		wantUser bool
	}{
		{
			name:     "correct password",
			username: "alice",
			password: "password123",
			setup: func(m *MockRepository) {
				m.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
			},
			wantUser: true,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "wrongpassword",
			setup: func(m *MockRepository) {
				m.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
			},
		},
		{
			name:     "unknown user",
			username: "bob",
			password: "password123",
			setup: func(m *MockRepository) {
				m.On("GetByUsername", mock.Anything, "bob").Return(nil, ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			tt.setup(mockRepo)

			u, err := service.Authenticate(context.Background(), tt.username, tt.password)
			require.NoError(t, err)
			if tt.wantUser {
				// неактивный пользователь тоже возвращается
				require.NotNil(t, u)
				assert.Equal(t, stored.ID, u.ID)
			} else {
				assert.Nil(t, u)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Update(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	oldHash, err := security.HashPassword("password123")
	require.NoError(t, err)

	name := "Alice Liddell"
	stored := &User{ID: 3, Email: "alice@example.com", Username: "alice", PasswordHash: oldHash, IsActive: true}

	mockRepo.On("GetByID", mock.Anything, 3).Return(stored, nil)
	mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	newPassword := "newpassword456"
	u, err := service.Update(context.Background(), 3, UpdateInput{FullName: &name, Password: &newPassword})
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, &name, u.FullName)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, security.VerifyPassword(newPassword, u.PasswordHash))
	assert.False(t, security.VerifyPassword("password123", u.PasswordHash))

	mockRepo.AssertExpectations(t)
}

func TestService_Update_Absent(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, 99).Return(nil, ErrNotFound)

	u, err := service.Update(context.Background(), 99, UpdateInput{})
	assert.NoError(t, err)
	assert.Nil(t, u)

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Update_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &User{ID: 3, Email: "alice@example.com", Username: "alice"}
	taken := "bob@example.com"

	mockRepo.On("GetByID", mock.Anything, 3).Return(stored, nil)
	mockRepo.On("GetByEmail", mock.Anything, taken).Return(&User{ID: 4, Email: taken}, nil)

	_, err := service.Update(context.Background(), 3, UpdateInput{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicate)

	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Update_SameEmailIsNotDuplicate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	stored := &User{ID: 3, Email: "alice@example.com", Username: "alice"}
	same := "alice@example.com"
	active := false

	mockRepo.On("GetByID", mock.Anything, 3).Return(stored, nil)
	mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	u, err := service.Update(context.Background(), 3, UpdateInput{Email: &same, IsActive: &active})
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}
