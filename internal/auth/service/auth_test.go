package service

import (
	"context"
	"testing"
	"time"

	autherrors "fluxor/internal/auth/errors"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/validation"

	"github.com/golang-jwt/jwt/v5"
)

type mockUserRepository struct {
	byID    map[string]*model.User
	byEmail map[string]*model.User
	nextID  int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byID:    map[string]*model.User{},
		byEmail: map[string]*model.User{},
		nextID:  1,
	}
}

func (m *mockUserRepository) Create(_ context.Context, user *model.User) error {
	if _, exists := m.byEmail[user.Email]; exists {
		return autherrors.ErrDuplicateEmail
	}
	user.ID = testObjectID(m.nextID)
	m.nextID++
	stored := *user
	m.byID[user.ID] = &stored
	m.byEmail[user.Email] = &stored
	return nil
}

func (m *mockUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (m *mockUserRepository) Update(_ context.Context, id string, user *model.User) error {
	existing, ok := m.byID[id]
	if !ok {
		return autherrors.ErrNotFound
	}
	delete(m.byEmail, existing.Email)
	stored := *user
	stored.ID = id
	m.byID[id] = &stored
	m.byEmail[stored.Email] = &stored
	return nil
}

// testObjectID builds a syntactically valid 24-hex ObjectID from n.
func testObjectID(n int) string {
	const hexDigits = "0123456789abcdef"
	id := make([]byte, 24)
	for i := range id {
		id[i] = '0'
	}
	for i := 23; n > 0 && i >= 0; i-- {
		id[i] = hexDigits[n%16]
		n /= 16
	}
	return string(id)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "unit-test-secret",
		JWTTokenExpiry: time.Minute,
		Log:            logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
}

func newTestService(repo *mockUserRepository) AuthService {
	return NewAuthService(repo, validation.New(), testConfig())
}

func TestRegister_HashesPasswordAndAppliesDefaults(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(repo)

	user := &model.User{
		Name:     "Ana Souza",
		Email:    "  Ana@Clinic.com ",
		Password: "super-secret-pw",
	}

	if err := svc.Register(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Password != "" {
		t.Error("plaintext password should be cleared after registration")
	}
	if user.PasswordHash == "" {
		t.Error("password hash should be set")
	}
	if user.PasswordHash == "super-secret-pw" {
		t.Error("password must not be stored in plaintext")
	}
	if user.Role != model.RoleStaff {
		t.Errorf("expected default role %q, got %q", model.RoleStaff, user.Role)
	}
	if !user.Active {
		t.Error("new users should be active")
	}
	if user.Email != "ana@clinic.com" {
		t.Errorf("email should be normalized, got %q", user.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(repo)

	first := &model.User{Name: "Ana Souza", Email: "ana@clinic.com", Password: "super-secret-pw"}
	if err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &model.User{Name: "Other Ana", Email: "ana@clinic.com", Password: "another-secret"}
	err := svc.Register(context.Background(), second)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestRegister_MissingPassword(t *testing.T) {
	svc := newTestService(newMockUserRepository())

	err := svc.Register(context.Background(), &model.User{Name: "Ana Souza", Email: "ana@clinic.com"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestLogin_IssuesTokenWithUserSubject(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(repo)

	user := &model.User{Name: "Ana Souza", Email: "ana@clinic.com", Password: "super-secret-pw"}
	if err := svc.Register(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ana@clinic.com",
		Password: "super-secret-pw",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got %q", resp.TokenType)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte("unit-test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token should be valid: %v", err)
	}
	sub, _ := claims.GetSubject()
	if sub != user.ID {
		t.Errorf("expected subject %q, got %q", user.ID, sub)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(repo)

	user := &model.User{Name: "Ana Souza", Email: "ana@clinic.com", Password: "super-secret-pw"}
	if err := svc.Register(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ana@clinic.com",
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected %s, got %s", apperrors.CodeUnauthorized, appErr.Code)
	}
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(repo)

	user := &model.User{Name: "Ana Souza", Email: "ana@clinic.com", Password: "super-secret-pw"}
	if err := svc.Register(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, errUnknown := svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@clinic.com", Password: "x-secret-pw"})
	_, errWrongPw := svc.Login(context.Background(), &model.LoginRequest{Email: "ana@clinic.com", Password: "x-secret-pw"})

	if errUnknown == nil || errWrongPw == nil {
		t.Fatal("both logins should fail")
	}
	if apperrors.AsAppError(errUnknown).Message != apperrors.AsAppError(errWrongPw).Message {
		t.Error("failure messages should not reveal whether the email exists")
	}
}

func TestUpdateProfile_ChangesPasswordHash(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(repo)

	user := &model.User{Name: "Ana Souza", Email: "ana@clinic.com", Password: "super-secret-pw"}
	if err := svc.Register(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oldHash := user.PasswordHash

	updated, err := svc.UpdateProfile(context.Background(), user.ID, &model.UserUpdate{Password: "new-secret-pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PasswordHash == oldHash {
		t.Error("password hash should change after update")
	}

	if _, err := svc.Login(context.Background(), &model.LoginRequest{Email: "ana@clinic.com", Password: "new-secret-pw"}); err != nil {
		t.Errorf("login with new password should succeed: %v", err)
	}
}
