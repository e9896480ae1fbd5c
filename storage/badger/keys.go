package badger

import (
	"encoding/binary"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// Key prefixes for different data types. Every key starts with the user
// id right after the type prefix so a whole user can be removed with
// prefix scans.
const (
	threadSummaryPrefix = "thsum"
	threadMessagePrefix = "thmsg"
	threadMessageIDSeq  = "thmsgseq"
	documentPrefix      = "doc"
	documentVerPrefix   = "docver"
)

// makeSummaryKey generates the key holding a thread's summary.
// Format: thsum:userID:threadID
func makeSummaryKey(key core.ThreadKey) []byte {
	return []byte(threadSummaryPrefix + ":" + key.UserID + ":" + key.ThreadID)
}

// makeMessageKey generates a composite key for one message in a thread.
// Format: thmsg:userID:threadID:seq
func makeMessageKey(key core.ThreadKey, seq uint64) []byte {
	prefix := makeMessagePrefix(key)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeMessagePrefix generates the prefix covering every message of a thread.
func makeMessagePrefix(key core.ThreadKey) []byte {
	return []byte(threadMessagePrefix + ":" + key.UserID + ":" + key.ThreadID + ":")
}

// makeSummaryUserPrefix generates the prefix covering every summary of a user.
func makeSummaryUserPrefix(userID string) []byte {
	return []byte(threadSummaryPrefix + ":" + userID + ":")
}

// makeMessageUserPrefix generates the prefix covering every message of a user.
func makeMessageUserPrefix(userID string) []byte {
	return []byte(threadMessagePrefix + ":" + userID + ":")
}

// makeDocumentKey generates the key for an indexed chunk.
// Format: doc:userID:threadID:id
func makeDocumentKey(userID, threadID string, id core.ID) []byte {
	prefix := []byte(documentPrefix + ":" + userID + ":" + threadID + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentPrefix generates the prefix covering a filter scope.
// A user-only filter covers every thread of the user.
func makeDocumentPrefix(filter storage.Filter) []byte {
	if filter.ThreadID == "" {
		return []byte(documentPrefix + ":" + filter.UserID + ":")
	}
	return []byte(documentPrefix + ":" + filter.UserID + ":" + filter.ThreadID + ":")
}

// makeVersionKey generates the key of a scope's version counter.
// Format: docver:userID or docver:userID:threadID
func makeVersionKey(filter storage.Filter) []byte {
	if filter.ThreadID == "" {
		return []byte(documentVerPrefix + ":" + filter.UserID)
	}
	return []byte(documentVerPrefix + ":" + filter.UserID + ":" + filter.ThreadID)
}

// makeVersionThreadPrefix generates the prefix covering every per-thread
// version counter of a user.
func makeVersionThreadPrefix(userID string) []byte {
	return []byte(documentVerPrefix + ":" + userID + ":")
}
