package core

import "slices"

// ConversationState is the unit of work for one turn. It is constructed
// fresh from persisted thread state plus the new user message, then
// advanced stage by stage via Apply. Stages never mutate it in place.
type ConversationState struct {
	Key ThreadKey

	// RecentMessages is the un-summarized conversation tail, ordered
	// oldest first. Append-only within a turn; pruned only by the
	// summarizer.
	RecentMessages []Message

	// UserQuery is the verbatim latest user utterance.
	UserQuery string

	// ConversationSummary is the markdown fact sheet covering pruned
	// messages. Replaced wholesale, never appended to.
	ConversationSummary string

	// DoRetrieval and DoSearch start as caller hints and may only be
	// escalated to true by the intent classifier.
	DoRetrieval bool
	DoSearch    bool

	// Tasks are the self-contained sub-questions derived from UserQuery.
	Tasks []string

	// FusedDocs is the rank-fused, content-deduplicated retrieval output,
	// pre-reranking. RetrievedDocs is the post-rerank (and optionally
	// consolidated) evidence handed to aggregation.
	FusedDocs     []Document
	RetrievedDocs []Document

	// WebSearchResults holds one shaped result per task.
	WebSearchResults []WebResult

	// FinalContext is the assembled evidence block for the generator.
	FinalContext string
}

// Delta is the immutable update a stage returns. Nil fields mean
// "unchanged"; a non-nil empty slice means "set to empty". Boolean flags
// use pointers so an unset flag is distinguishable from false.
type Delta struct {
	AppendMessages      []Message
	RemoveMessageIds    []string
	ConversationSummary *string
	DoRetrieval         *bool
	DoSearch            *bool
	Tasks               []string
	FusedDocs           []Document
	RetrievedDocs       []Document
	WebSearchResults    []WebResult
	FinalContext        *string
}

// IsZero reports whether the delta carries no updates.
func (d Delta) IsZero() bool {
	return len(d.AppendMessages) == 0 &&
		len(d.RemoveMessageIds) == 0 &&
		d.ConversationSummary == nil &&
		d.DoRetrieval == nil &&
		d.DoSearch == nil &&
		d.Tasks == nil &&
		d.FusedDocs == nil &&
		d.RetrievedDocs == nil &&
		d.WebSearchResults == nil &&
		d.FinalContext == nil
}

// Apply merges a delta into a copy of the state and returns the result.
// Intent flags are escalation-only: a delta can turn them on but a true
// flag never reverts to false.
func (s ConversationState) Apply(d Delta) ConversationState {
	next := s
	next.RecentMessages = slices.Clone(s.RecentMessages)

	if len(d.RemoveMessageIds) > 0 {
		removed := make(map[string]bool, len(d.RemoveMessageIds))
		for _, id := range d.RemoveMessageIds {
			removed[id] = true
		}
		next.RecentMessages = slices.DeleteFunc(next.RecentMessages, func(m Message) bool {
			return removed[m.Id]
		})
	}
	next.RecentMessages = append(next.RecentMessages, d.AppendMessages...)

	if d.ConversationSummary != nil {
		next.ConversationSummary = *d.ConversationSummary
	}
	if d.DoRetrieval != nil && *d.DoRetrieval {
		next.DoRetrieval = true
	}
	if d.DoSearch != nil && *d.DoSearch {
		next.DoSearch = true
	}
	if d.Tasks != nil {
		next.Tasks = d.Tasks
	}
	if d.FusedDocs != nil {
		next.FusedDocs = d.FusedDocs
	}
	if d.RetrievedDocs != nil {
		next.RetrievedDocs = d.RetrievedDocs
	}
	if d.WebSearchResults != nil {
		next.WebSearchResults = d.WebSearchResults
	}
	if d.FinalContext != nil {
		next.FinalContext = *d.FinalContext
	}
	return next
}

// HasTask reports whether task is a member of the state's task list.
func (s ConversationState) HasTask(task string) bool {
	return slices.Contains(s.Tasks, task)
}

// BoolPtr returns a pointer to b, for building deltas.
func BoolPtr(b bool) *bool { return &b }

// StringPtr returns a pointer to v, for building deltas.
func StringPtr(v string) *string { return &v }
