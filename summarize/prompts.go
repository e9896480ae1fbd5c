package summarize

// initialSummaryPrompt produces the first fact sheet for a thread.
const initialSummaryPrompt = `You maintain a fact sheet about an ongoing conversation. From the turns provided, produce a markdown fact sheet of categorized bullet facts, for example:

## User
- ...

## Topics discussed
- ...

## Decisions and answers given
- ...

Record only established facts, no speculation. Respond with the fact sheet only.`

// updateSummaryPrompt folds new turns into an existing fact sheet. The
// output replaces the old sheet wholesale, so it must carry everything
// still true.
const updateSummaryPrompt = `You maintain a fact sheet about an ongoing conversation. Merge the new turns into the current fact sheet: add new facts, correct facts the new turns contradict, and never duplicate a fact. Keep the markdown category structure. Respond with the complete updated fact sheet only — it replaces the old one.`
