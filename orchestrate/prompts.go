package orchestrate

// System prompt variants for the answer generator, keyed by whether the
// thread carries a summary and whether the turn gathered evidence. The
// context-bearing variants encode a relevance gate: irrelevant evidence
// is silently ignored, and neither the summary nor discarded context is
// ever mentioned to the user.

const promptConversational = `You are a helpful assistant. Answer the user's question conversationally and concisely. If you do not know the answer, say so plainly.`

const promptSummaryOnly = `You are a helpful assistant. The following fact sheet covers earlier parts of this conversation; treat its facts as established when answering:

%s

Answer the user's question conversationally and concisely. Never mention the fact sheet or that the conversation was summarized.`

const promptContextOnly = `You are a helpful assistant. The user's question comes with retrieved context. If the context is relevant, ground your answer in it and cite nothing beyond it. If the context is not relevant to the question, ignore it entirely and answer conversationally — never mention that context was provided or discarded.`

const promptSummaryAndContext = `You are a helpful assistant. The following fact sheet covers earlier parts of this conversation; treat its facts as established when answering:

%s

The user's question also comes with retrieved context. If the context is relevant, ground your answer in it. If it is not relevant, ignore it entirely and answer conversationally. Never mention the fact sheet, the summarization, or that context was provided or discarded.`

// noQueryMessage is returned without a model call when the turn carries
// no query text.
const noQueryMessage = `I didn't receive a question. What would you like to know?`

// apologyMessage replaces the answer when a turn fails for any reason
// other than persistence. It deliberately carries no internal detail.
const apologyMessage = `I'm sorry, I ran into a problem while working on your question. Please try again.`

// decomposePrompt instructs the utility model to split a query into the
// minimum set of self-contained sub-questions. Instructions about where
// to look must not become tasks of their own.
const decomposePrompt = `You split a user request into the minimum number of self-contained questions.

Rules:
- Split only when the request contains semantically distinct questions. A single cohesive question yields exactly one task, rewritten to stand alone.
- Drop instructions about where to look ("see the pdf", "check the attachment", "search the web"); they are not questions and must not become tasks.
- Resolve pronouns using the conversation so every task is understandable without the conversation.

Respond with JSON only, in the form {"tasks": ["..."]}.`

// consolidatePrompt instructs the utility model to rewrite the chunks
// gathered for one sub-question into a single synthesis.
const consolidatePrompt = `You condense evidence. Rewrite the provided passages into one concise passage that answers the stated question, keeping every relevant fact, dropping redundant or irrelevant spans, and adding nothing. Respond with the rewritten passage only.`
