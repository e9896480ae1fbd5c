package orchestrate

import (
	"testing"

	"github.com/poiesic/answerit/core"
	"github.com/stretchr/testify/assert"
)

func TestNextStage_ConversationalSkipsGathering(t *testing.T) {
	state := core.ConversationState{}
	assert.Equal(t, StageGenerate, nextStage(StageClassify, state))
}

func TestNextStage_EvidencePath(t *testing.T) {
	state := core.ConversationState{DoRetrieval: true}
	assert.Equal(t, StageDecompose, nextStage(StageClassify, state))
	assert.Equal(t, StageGather, nextStage(StageDecompose, state))

	// Nothing retrieved: skip refinement.
	assert.Equal(t, StageAggregate, nextStage(StageGather, state))

	state.FusedDocs = []core.Document{{Content: "chunk"}}
	assert.Equal(t, StageRefine, nextStage(StageGather, state))
	assert.Equal(t, StageAggregate, nextStage(StageRefine, state))
	assert.Equal(t, StageGenerate, nextStage(StageAggregate, state))
	assert.Equal(t, StageDone, nextStage(StageGenerate, state))
}

func TestNextStage_SearchOnlyStillDecomposes(t *testing.T) {
	state := core.ConversationState{DoSearch: true}
	assert.Equal(t, StageDecompose, nextStage(StageClassify, state))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "classify", StageClassify.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
