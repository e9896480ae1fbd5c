package orchestrate

import "github.com/poiesic/answerit/core"

// Stage identifies one step of the turn state machine.
type Stage int

const (
	// StageClassify escalates the intent flags.
	StageClassify Stage = iota + 1
	// StageDecompose splits the query into tasks.
	StageDecompose
	// StageGather runs retrieval and web search in parallel.
	StageGather
	// StageRefine reranks and optionally consolidates the fused pool.
	StageRefine
	// StageAggregate assembles the evidence block.
	StageAggregate
	// StageGenerate produces the assistant answer.
	StageGenerate
	// StageDone terminates the run.
	StageDone
)

// String returns the stage name for logs.
func (s Stage) String() string {
	switch s {
	case StageClassify:
		return "classify"
	case StageDecompose:
		return "decompose"
	case StageGather:
		return "gather"
	case StageRefine:
		return "refine"
	case StageAggregate:
		return "aggregate"
	case StageGenerate:
		return "generate"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// nextStage is the pure routing function of the state machine. A purely
// conversational turn skips decomposition and evidence gathering
// entirely; refinement is skipped when retrieval produced nothing.
func nextStage(current Stage, state core.ConversationState) Stage {
	switch current {
	case StageClassify:
		if state.DoRetrieval || state.DoSearch {
			return StageDecompose
		}
		return StageGenerate
	case StageDecompose:
		return StageGather
	case StageGather:
		if len(state.FusedDocs) > 0 {
			return StageRefine
		}
		return StageAggregate
	case StageRefine:
		return StageAggregate
	case StageAggregate:
		return StageGenerate
	case StageGenerate:
		return StageDone
	default:
		return StageDone
	}
}
