package core

import (
	"errors"
	"testing"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		message *Message
		wantErr error
	}{
		{
			name:    "valid human message",
			message: &Message{Id: "x", Role: RoleHuman, Content: "hello"},
			wantErr: nil,
		},
		{
			name:    "nil message",
			message: nil,
			wantErr: ErrInvalidMessage,
		},
		{
			name:    "empty content",
			message: &Message{Id: "x", Role: RoleHuman, Content: ""},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "invalid role",
			message: &Message{Id: "x", Role: Role(99), Content: "hello"},
			wantErr: ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.message)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMessage() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateThreadKey(t *testing.T) {
	if err := ValidateThreadKey(ThreadKey{UserID: "u", ThreadID: "t"}); err != nil {
		t.Errorf("ValidateThreadKey() unexpected error: %v", err)
	}
	if err := ValidateThreadKey(ThreadKey{ThreadID: "t"}); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("ValidateThreadKey() error = %v, want ErrEmptyUserID", err)
	}
	if err := ValidateThreadKey(ThreadKey{UserID: "u"}); !errors.Is(err, ErrEmptyThreadID) {
		t.Errorf("ValidateThreadKey() error = %v, want ErrEmptyThreadID", err)
	}
}

func TestValidateIndexedDocument(t *testing.T) {
	doc := &IndexedDocument{UserID: "u", ThreadID: "t", Content: "chunk"}
	if err := ValidateIndexedDocument(doc); err != nil {
		t.Errorf("ValidateIndexedDocument() unexpected error: %v", err)
	}

	if err := ValidateIndexedDocument(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("ValidateIndexedDocument(nil) error = %v", err)
	}

	doc.Content = ""
	if err := ValidateIndexedDocument(doc); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("ValidateIndexedDocument() error = %v, want ErrEmptyContent", err)
	}
}
