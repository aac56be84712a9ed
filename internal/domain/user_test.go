package domain

import (
	"testing"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantEmail string
		wantErr   error
	}{
		{name: "valid email", email: "user@example.com", wantEmail: "user@example.com"},
		{name: "valid email with uppercase", email: "User@Example.COM", wantEmail: "user@example.com"},
		{name: "email with spaces", email: " user@example.com ", wantEmail: "user@example.com"},
		{name: "empty email", email: "", wantErr: ErrInvalidEmail},
		{name: "invalid email format", email: "invalid-email", wantErr: ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := NewUser(tt.email)
			if err != tt.wantErr {
				t.Fatalf("NewUser() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", user.Email, tt.wantEmail)
			}
			if user.EmailValid {
				t.Error("new user should not have a valid email")
			}
			if user.ValidationPending() {
				t.Error("new user should start idle")
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrWeakPassword {
		t.Errorf("ValidatePassword(short) = %v, want ErrWeakPassword", err)
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("ValidatePassword(longenough) = %v, want nil", err)
	}
}

func TestUser_ValidationLifecycle(t *testing.T) {
	user := &User{Email: "alice@example.com"}

	user.SetEmailValidationHash("$argon2id$stub")
	if !user.ValidationPending() {
		t.Fatal("expected pending state after a hash is set")
	}

	user.MarkEmailValid()
	if !user.EmailValid {
		t.Error("expected email to be valid")
	}
	if user.ValidationPending() {
		t.Error("expected hash to be cleared together with validity")
	}
}

func TestUser_DisplayName(t *testing.T) {
	name := "Alice"
	blank := "  "

	tests := []struct {
		name string
		user User
		want string
	}{
		{"explicit name", User{Email: "a@example.com", Name: &name}, "Alice"},
		{"blank name falls back", User{Email: "bob@example.com", Name: &blank}, "bob"},
		{"nil name falls back", User{Email: "carol@example.com"}, "carol"},
		{"no at sign", User{Email: "weird"}, "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_EmailDomain(t *testing.T) {
	tests := map[string]string{
		"a@Test.Example":  "test.example",
		"a@b@example.com": "example.com",
		"nodomain":        "",
	}
	for email, want := range tests {
		u := User{Email: email}
		if got := u.EmailDomain(); got != want {
			t.Errorf("EmailDomain(%q) = %q, want %q", email, got, want)
		}
	}
}
