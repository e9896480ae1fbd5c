package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for indexed content.
// It is generated using content-based hashing so identical chunks
// collapse to the same entry.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the source of a conversation message.
type Role int

const (
	// RoleHuman represents the human user.
	RoleHuman Role = iota + 1
	// RoleAI represents the assistant.
	RoleAI
)

// String returns the role label used when linearizing history for prompts.
func (r Role) String() string {
	switch r {
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	default:
		return "Unknown"
	}
}

// ThreadKey identifies a persistent conversation.
type ThreadKey struct {
	UserID   string
	ThreadID string
}

// String returns the canonical "user/thread" form of the key.
func (k ThreadKey) String() string {
	return k.UserID + "/" + k.ThreadID
}

// Message is one turn of a conversation. Ids are stable across
// persistence so the summarizer can prune exact messages later.
type Message struct {
	Id        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewMessage creates a message with a fresh id and UTC timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		Id:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Document is one evidence chunk flowing through the turn pipeline.
// SourceTask records which sub-question produced it, for grouping at
// aggregation time.
type Document struct {
	Content       string
	SourceLocator string
	SourceTask    string
}

// ContentID returns the content-hash identity used for deduplication.
func (d Document) ContentID() ID {
	return IDFromContent(d.Content)
}

// WebResult is one shaped web-search hit, one slot per task.
type WebResult struct {
	URL     string
	Content string
}

// IndexedDocument is a chunk persisted in the document index.
// Its Id is the content hash, which makes re-indexing idempotent.
type IndexedDocument struct {
	Id            ID
	UserID        string
	ThreadID      string
	SourceLocator string
	Content       string
	Vector        []float32
	InsertedAt    time.Time
}

// IndexMatch is a ranked hit from the dense or sparse index.
type IndexMatch struct {
	Doc   *IndexedDocument
	Score float32
}
