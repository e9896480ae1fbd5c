package orchestrate

import (
	"strings"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// BuildContext assembles the turn's evidence block: retrieved documents
// grouped by the task that produced them, each with explicit source
// attribution, followed by the web-search evidence. Deterministic, no
// model calls. Empty evidence yields an empty string.
func BuildContext(state core.ConversationState) string {
	var sb strings.Builder

	if len(state.RetrievedDocs) > 0 {
		sb.WriteString("Document evidence:\n")

		var taskOrder []string
		grouped := make(map[string][]core.Document)
		for _, doc := range state.RetrievedDocs {
			if _, ok := grouped[doc.SourceTask]; !ok {
				taskOrder = append(taskOrder, doc.SourceTask)
			}
			grouped[doc.SourceTask] = append(grouped[doc.SourceTask], doc)
		}

		for _, task := range taskOrder {
			sb.WriteString("\n[")
			sb.WriteString(task)
			sb.WriteString("]\n")
			for _, doc := range grouped[task] {
				sb.WriteString(doc.Content)
				sb.WriteString("\n")
				if doc.SourceLocator != "" {
					sb.WriteString("Source: ")
					sb.WriteString(doc.SourceLocator)
					sb.WriteString("\n")
				}
			}
		}
	}

	if len(state.WebSearchResults) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Web evidence:\n")
		for _, result := range state.WebSearchResults {
			sb.WriteString("- ")
			sb.WriteString(result.URL)
			sb.WriteString(": ")
			sb.WriteString(result.Content)
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// BuildMessages lays out the generator call: the system prompt, the
// prior conversation tail, and a final human message carrying the
// evidence block plus the literal user query. The query is always
// recoverable verbatim from the final message.
func BuildMessages(state core.ConversationState, systemPrompt string) []ai.PromptMessage {
	messages := []ai.PromptMessage{
		{Role: ai.PromptRoleSystem, Content: systemPrompt},
	}

	// The current user message is replayed as the final prompt message,
	// so drop it from the tail if it is already there.
	tail := state.RecentMessages
	if n := len(tail); n > 0 && tail[n-1].Role == core.RoleHuman && tail[n-1].Content == state.UserQuery {
		tail = tail[:n-1]
	}
	for _, msg := range tail {
		role := ai.PromptRoleHuman
		if msg.Role == core.RoleAI {
			role = ai.PromptRoleAI
		}
		messages = append(messages, ai.PromptMessage{Role: role, Content: msg.Content})
	}

	final := state.UserQuery
	if state.FinalContext != "" {
		final = "Context:\n" + state.FinalContext + "\n\nQuestion: " + state.UserQuery
	}
	messages = append(messages, ai.PromptMessage{Role: ai.PromptRoleHuman, Content: final})

	return messages
}
