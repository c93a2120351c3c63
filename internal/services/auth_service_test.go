package services

import (
	"testing"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	tr := newTestRepos()
	svc := newAuthService(tr.repos, testConfig())

	user, err := svc.Register(&models.CreateUserRequest{
		Email:    "analyst@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != string(models.RoleAnalyst) {
		t.Errorf("expected default analyst role, got %s", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not leave the service")
	}

	resp, err := svc.Login("analyst@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User.Email != "analyst@example.com" {
		t.Errorf("unexpected user in response: %+v", resp.User)
	}

	validated, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if validated.ID != user.ID {
		t.Error("token must resolve to the registered user")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	tr := newTestRepos()
	svc := newAuthService(tr.repos, testConfig())

	if _, err := svc.Register(&models.CreateUserRequest{
		Email:    "analyst@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login("analyst@example.com", "battery-staple"); err == nil {
		t.Fatal("expected unauthorized for wrong password")
	}
	if _, err := svc.Login("nobody@example.com", "correct-horse"); err == nil {
		t.Fatal("expected unauthorized for unknown email")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	tr := newTestRepos()
	svc := newAuthService(tr.repos, testConfig())

	req := &models.CreateUserRequest{Email: "analyst@example.com", Password: "correct-horse"}
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(req); err == nil {
		t.Fatal("expected conflict for duplicate email")
	}
}

func TestAuthService_Register_RejectsShortPassword(t *testing.T) {
	tr := newTestRepos()
	svc := newAuthService(tr.repos, testConfig())

	_, err := svc.Register(&models.CreateUserRequest{
		Email:    "analyst@example.com",
		Password: "short",
	})
	if err == nil {
		t.Fatal("expected error for password below the minimum length")
	}
}

func TestAuthService_Register_RejectsUnknownRole(t *testing.T) {
	tr := newTestRepos()
	svc := newAuthService(tr.repos, testConfig())

	_, err := svc.Register(&models.CreateUserRequest{
		Email:    "root@example.com",
		Password: "correct-horse",
		Role:     "superuser",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	tr := newTestRepos()
	svc := newAuthService(tr.repos, testConfig())

	if _, err := svc.ValidateToken("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
