package gone

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		isRegex bool
		want    string
		wantErr bool
	}{
		{name: "exact", pattern: "/old-page", want: "/old-page"},
		{name: "trims", pattern: "\t/old-page \n", want: "/old-page"},
		{name: "regex", pattern: "^/blog/[0-9]{4}/", isRegex: true, want: "^/blog/[0-9]{4}/"},
		{name: "bare word regex", pattern: "products", isRegex: true, want: "products"},
		{name: "max length", pattern: "/" + strings.Repeat("é", 254), want: "/" + strings.Repeat("é", 254)},
		{name: "empty", pattern: "", wantErr: true},
		{name: "blank", pattern: "  ", isRegex: true, wantErr: true},
		{name: "over max length", pattern: strings.Repeat("a", 256), wantErr: true},
		{name: "bad regex", pattern: "^/prod[", isRegex: true, wantErr: true},
		{name: "bad regex group", pattern: "(unclosed", isRegex: true, wantErr: true},
		{name: "bad regex as exact", pattern: "(unclosed", want: "(unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePattern(tt.pattern, tt.isRegex)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ValidatePattern(%q) error = %v, want ErrValidation", tt.pattern, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePattern(%q) unexpected error: %v", tt.pattern, err)
			}
			if got != tt.want {
				t.Errorf("ValidatePattern(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "translated", err: gorm.ErrDuplicatedKey, want: true},
		{name: "wrapped translated", err: fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "mysql 1062", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: true},
		{name: "other mysql error", err: &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, want: false},
		{name: "not found", err: gorm.ErrRecordNotFound, want: false},
		{name: "plain", err: errBoom, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKey(tt.err); got != tt.want {
				t.Errorf("isDuplicateKey(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
