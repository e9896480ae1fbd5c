package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_EscalationOnlyFlags(t *testing.T) {
	s := ConversationState{DoRetrieval: true, DoSearch: false}

	next := s.Apply(Delta{DoRetrieval: BoolPtr(false), DoSearch: BoolPtr(true)})

	assert.True(t, next.DoRetrieval, "true flag must never revert to false")
	assert.True(t, next.DoSearch)

	// Unset flags leave state untouched.
	next = next.Apply(Delta{})
	assert.True(t, next.DoRetrieval)
	assert.True(t, next.DoSearch)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := ConversationState{
		RecentMessages: []Message{{Id: "a", Role: RoleHuman, Content: "hi"}},
		Tasks:          []string{"one"},
	}

	next := s.Apply(Delta{
		AppendMessages: []Message{{Id: "b", Role: RoleAI, Content: "hello"}},
		Tasks:          []string{"two", "three"},
	})

	assert.Len(t, s.RecentMessages, 1, "input state must not be mutated")
	assert.Equal(t, []string{"one"}, s.Tasks)
	assert.Len(t, next.RecentMessages, 2)
	assert.Equal(t, []string{"two", "three"}, next.Tasks)
}

func TestApply_RemoveMessages(t *testing.T) {
	s := ConversationState{
		RecentMessages: []Message{
			{Id: "a", Role: RoleHuman, Content: "first"},
			{Id: "b", Role: RoleAI, Content: "second"},
			{Id: "c", Role: RoleHuman, Content: "third"},
		},
	}

	next := s.Apply(Delta{
		RemoveMessageIds:    []string{"a", "b"},
		ConversationSummary: StringPtr("### Facts\n- something"),
	})

	assert.Len(t, next.RecentMessages, 1)
	assert.Equal(t, "c", next.RecentMessages[0].Id)
	assert.Equal(t, "### Facts\n- something", next.ConversationSummary)
}

func TestApply_NilVersusEmptySlices(t *testing.T) {
	s := ConversationState{
		RetrievedDocs: []Document{{Content: "chunk"}},
	}

	// Nil slice leaves the field unchanged.
	next := s.Apply(Delta{})
	assert.Len(t, next.RetrievedDocs, 1)

	// Non-nil empty slice sets the field to empty.
	next = s.Apply(Delta{RetrievedDocs: []Document{}})
	assert.Empty(t, next.RetrievedDocs)
}

func TestDeltaIsZero(t *testing.T) {
	assert.True(t, Delta{}.IsZero())
	assert.False(t, Delta{FinalContext: StringPtr("")}.IsZero())
	assert.False(t, Delta{Tasks: []string{}}.IsZero())
}

func TestHasTask(t *testing.T) {
	s := ConversationState{Tasks: []string{"what is paris"}}
	assert.True(t, s.HasTask("what is paris"))
	assert.False(t, s.HasTask("what is rome"))
}
