package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid username", username: "anna", wantErr: false},
		{name: "digits and separators", username: "ben_2-x", wantErr: false},
		{name: "exactly 32 characters", username: strings.Repeat("a", 32), wantErr: false},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 33), wantErr: true},
		{name: "spaces", username: "anna maria", wantErr: true},
		{name: "path characters", username: "../anna", wantErr: true},
		{name: "umlaut", username: "jörg", wantErr: true},
		{name: "empty string", username: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		confirm   string
		wantErr   bool
		wantField string
	}{
		{name: "valid password", password: "geheim", confirm: "geheim", wantErr: false},
		{name: "too short", password: "abc12", confirm: "abc12", wantErr: true, wantField: "password"},
		{name: "empty", password: "", confirm: "", wantErr: true, wantField: "password"},
		{name: "too long", password: strings.Repeat("x", 73), confirm: strings.Repeat("x", 73), wantErr: true, wantField: "password"},
		{name: "mismatch", password: "geheim", confirm: "geheim!", wantErr: true, wantField: "confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.confirm)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr ValidationError
			if tt.wantErr && (!errors.As(err, &verr) || verr.Field != tt.wantField) {
				t.Errorf("ValidatePassword() error = %v, want field %q", err, tt.wantField)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{name: "valid title", title: "Psalm 23", wantErr: false},
		{name: "unicode title", title: "Römerbrief", wantErr: false},
		{name: "blank", title: "   ", wantErr: true},
		{name: "too long", title: strings.Repeat("ä", 101), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLanguage(t *testing.T) {
	for _, code := range []string{"DE", "EN"} {
		if err := ValidateLanguage(code); err != nil {
			t.Errorf("ValidateLanguage(%q) error = %v", code, err)
		}
	}
	for _, code := range []string{"", "de", "FR"} {
		if err := ValidateLanguage(code); err == nil {
			t.Errorf("ValidateLanguage(%q) should fail", code)
		}
	}
}

func TestValidateTeamName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid name", input: "Psalmisten", wantErr: false},
		{name: "empty name", input: "", wantErr: true},
		{name: "single character", input: "A", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 51), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTeamName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTeamName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
