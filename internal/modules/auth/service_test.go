package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"treasuryroi/internal/domain"
)

type stubUserRepo struct {
	user *domain.User
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, errors.New("not found")
}

func (s *stubUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, errors.New("not found")
}

type stubJWT struct{}

func (stubJWT) GenerateToken(userID int64, role string) (string, error) {
	return "token-for-user", nil
}

func adminUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           1,
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
}

func TestLogin_Success(t *testing.T) {
	svc := NewService(&stubUserRepo{user: adminUser(t)}, stubJWT{})

	result, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Admin@Example.com ",
		Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.Equal(t, "token-for-user", result.Token)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewService(&stubUserRepo{user: adminUser(t)}, stubJWT{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	svc := NewService(&stubUserRepo{user: adminUser(t)}, stubJWT{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email and wrong password are indistinguishable")
}

func TestMe(t *testing.T) {
	svc := NewService(&stubUserRepo{user: adminUser(t)}, stubJWT{})

	user, err := svc.Me(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)

	_, err = svc.Me(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
