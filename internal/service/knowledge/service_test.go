package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/completion"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/service/embedding"
	"github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/testutil"
)

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "No specific knowledge base loaded yet.", BuildContext(nil))
	assert.Equal(t, "No specific knowledge base loaded yet.", BuildContext([]model.KnowledgeSearchResult{}))
}

func TestBuildContext_Sections(t *testing.T) {
	results := []model.KnowledgeSearchResult{
		{Title: "Speed Limits", Content: "Absolute limits differ from presumed limits."},
		{Title: "Radar Calibration", Content: "Calibration records can be subpoenaed."},
	}
	got := BuildContext(results)
	assert.Contains(t, got, "### Speed Limits\nAbsolute limits differ from presumed limits.")
	assert.Contains(t, got, "### Radar Calibration\nCalibration records can be subpoenaed.")
}

func TestBuildContext_BudgetCap(t *testing.T) {
	big := strings.Repeat("x", contextBudgetChars)
	results := []model.KnowledgeSearchResult{
		{Title: "First", Content: big[:contextBudgetChars-12]},
		{Title: "Second", Content: "should be dropped"},
	}
	got := BuildContext(results)
	assert.Contains(t, got, "### First")
	assert.NotContains(t, got, "### Second")
	assert.LessOrEqual(t, len(got), contextBudgetChars)
}

func TestBuildContext_OversizedFirstChunk(t *testing.T) {
	// A single chunk larger than the budget yields the placeholder rather
	// than an empty context.
	results := []model.KnowledgeSearchResult{
		{Title: "Huge", Content: strings.Repeat("x", contextBudgetChars+1)},
	}
	assert.Equal(t, "No specific knowledge base loaded yet.", BuildContext(results))
}

// captureCompleter records the messages it was called with.
type captureCompleter struct {
	messages []completion.Message
	reply    string
}

func (c *captureCompleter) Complete(_ context.Context, messages []completion.Message) (string, error) {
	c.messages = messages
	return c.reply, nil
}

func TestRespond_NoKnowledge(t *testing.T) {
	// Zero-vector embedder skips retrieval entirely, so no storage or vector
	// index is needed. The system prompt must carry the placeholder.
	completer := &captureCompleter{reply: "General guidance only."}
	svc := New(nil, embedding.NewNoopProvider(1536), nil, completer, testutil.TestLogger())

	persona := Persona{
		AgentID:        "TRAFFIC-SPEED-001",
		Name:           "Sarah Chen",
		Title:          "Senior Traffic Attorney",
		Specialization: "TRAFFIC",
	}
	reply, err := svc.Respond(context.Background(), persona, "Can I contest a speeding ticket?", nil)
	require.NoError(t, err)
	assert.Equal(t, "General guidance only.", reply)

	require.NotEmpty(t, completer.messages)
	sys := completer.messages[0]
	assert.Equal(t, completion.RoleSystem, sys.Role)
	assert.Contains(t, sys.Content, "Sarah Chen")
	assert.Contains(t, sys.Content, "No specific knowledge base loaded yet.")

	last := completer.messages[len(completer.messages)-1]
	assert.Equal(t, completion.RoleUser, last.Role)
	assert.Equal(t, "Can I contest a speeding ticket?", last.Content)
}

func TestRespond_HistoryTruncatedToTen(t *testing.T) {
	completer := &captureCompleter{reply: "ok"}
	svc := New(nil, embedding.NewNoopProvider(1536), nil, completer, testutil.TestLogger())

	var history []model.ChatTurn
	for i := 0; i < 25; i++ {
		role := model.ChatRoleUser
		if i%2 == 1 {
			role = model.ChatRoleAssistant
		}
		history = append(history, model.ChatTurn{Role: role, Content: strings.Repeat("m", i+1)})
	}

	_, err := svc.Respond(context.Background(), Persona{AgentID: "SIGMA-1", Name: "Sigma"}, "status?", history)
	require.NoError(t, err)

	// system + 10 history turns + current message
	require.Len(t, completer.messages, 12)

	// The replayed turns are the most recent ten, roles preserved.
	first := completer.messages[1]
	assert.Equal(t, history[15].Content, first.Content)
	assert.Equal(t, completion.RoleAssistant, first.Role)
}
