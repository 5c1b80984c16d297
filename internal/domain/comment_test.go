package domain

import (
	"strings"
	"testing"
)

func TestValidateCommentText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"empty", "", true},
		{"short", "nice list", false},
		{"at limit", strings.Repeat("é", MaxCommentLength), false},
		{"over limit", strings.Repeat("a", MaxCommentLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fe := ValidateCommentText(tt.text)
			if (fe != nil) != tt.wantErr {
				t.Fatalf("ValidateCommentText() = %v, wantErr %v", fe, tt.wantErr)
			}
			if fe != nil && fe.Field != "content" {
				t.Errorf("field = %q, want content", fe.Field)
			}
		})
	}
}
