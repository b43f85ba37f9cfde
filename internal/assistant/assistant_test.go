package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestNextStage(t *testing.T) {
	assert.Equal(t, StageClarify, NextStage(nil, 0))
	assert.Equal(t, StageClarify, NextStage([]string{}, 5))
	assert.Equal(t, StagePriority, NextStage([]string{"User: a", "Bot: b"}, 1))
	assert.Equal(t, StageChecklist, NextStage([]string{"User: a", "Bot: b"}, 2))
}

func TestConverseAsksClarifyingQuestion(t *testing.T) {
	gen := &stubGenerator{reply: "  How many people are coming?\n"}
	a := New(gen)

	reply, err := a.Converse(context.Background(), Turn{UserInput: "Beach trip", EventName: "Summer"})
	require.NoError(t, err)

	assert.Equal(t, StageClarify, reply.Stage)
	assert.False(t, reply.IsChecklist())
	assert.Equal(t, "How many people are coming?", reply.Question)
	assert.Equal(t, []string{"User: Beach trip", "Bot: How many people are coming?"}, reply.History)
	assert.Equal(t, 1, reply.QuestionIndex)
	assert.Contains(t, gen.prompts[0], `"Beach trip"`)
	assert.Contains(t, gen.prompts[0], "ONE clarifying question")
}

func TestConverseAsksPriorityQuestion(t *testing.T) {
	gen := &stubGenerator{reply: "What matters most?"}
	a := New(gen)

	history := []string{"User: Beach trip", "Bot: How many?"}
	reply, err := a.Converse(context.Background(), Turn{UserInput: "Four", EventName: "Summer", History: history, QuestionIndex: 1})
	require.NoError(t, err)

	assert.Equal(t, StagePriority, reply.Stage)
	assert.Len(t, reply.History, 4)
	assert.Equal(t, 2, reply.QuestionIndex)
	assert.Contains(t, gen.prompts[0], "prioritize")
	assert.Contains(t, gen.prompts[0], `"Summer"`)
	assert.Contains(t, gen.prompts[0], "User: Four")
	// the caller's slice is not modified
	assert.Len(t, history, 2)
}

func TestConverseBuildsChecklist(t *testing.T) {
	gen := &stubGenerator{reply: "```json\n[{\"task\":\"Book hotel\",\"priority\":1,\"item\":\"none\"},{\"task\":\"Pack sunscreen\",\"priority\":2,\"item\":\"sunscreen\"}]\n```"}
	a := New(gen)

	reply, err := a.Converse(context.Background(), Turn{EventName: "Summer", History: []string{"User: a", "Bot: b"}, QuestionIndex: 2})
	require.NoError(t, err)

	assert.True(t, reply.IsChecklist())
	require.Len(t, reply.Items, 2)
	assert.Equal(t, "Book hotel", reply.Items[0].Description)
	assert.Nil(t, reply.Items[0].Item)
	require.NotNil(t, reply.Items[1].Item)
	assert.Equal(t, "sunscreen", *reply.Items[1].Item)
	assert.Contains(t, gen.prompts[0], "at least 8 pre-event tasks")
}

func TestConverseInvalidChecklistKeepsRaw(t *testing.T) {
	gen := &stubGenerator{reply: "Sorry, I can't do that"}
	a := New(gen)

	reply, err := a.Converse(context.Background(), Turn{History: []string{"x"}, QuestionIndex: 3})
	assert.ErrorIs(t, err, ErrInvalidChecklist)
	assert.Equal(t, "Sorry, I can't do that", reply.Raw)
}

func TestConverseGeneratorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := New(&stubGenerator{err: boom}).Converse(context.Background(), Turn{UserInput: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestParseChecklistDefaults(t *testing.T) {
	items, err := ParseChecklist(`[
		{"priority": 7},
		{"task": "Buy snacks", "priority": "2", "item": "  Snacks "},
		{"task": "Rent van", "item": "", "due_date": "2030-05-01"},
		{"task": "Call venue", "priority": "soon", "item": "NONE"}
	]`)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, defaultDescription, items[0].Description)
	assert.Equal(t, models.PriorityNormal, items[0].Priority)

	assert.Equal(t, models.PriorityNecessary, items[1].Priority)
	require.NotNil(t, items[1].Item)
	assert.Equal(t, "Snacks", *items[1].Item)

	assert.Nil(t, items[2].Item)
	require.NotNil(t, items[2].DueDate)
	assert.Equal(t, 2030, items[2].DueDate.Year())

	assert.Equal(t, models.PriorityNormal, items[3].Priority)
	assert.Nil(t, items[3].Item)
}

func TestParseChecklistTruncatesOnCharacters(t *testing.T) {
	item := strings.Repeat("a", 99) + "éé"
	task := strings.Repeat("b", 254) + "üü"

	items, err := ParseChecklist(fmt.Sprintf(`[{"task": %q, "item": %q}]`, task, item))
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NotNil(t, items[0].Item)
	assert.True(t, utf8.ValidString(*items[0].Item))
	assert.Equal(t, strings.Repeat("a", 99)+"é", *items[0].Item)

	assert.True(t, utf8.ValidString(items[0].Description))
	assert.Equal(t, strings.Repeat("b", 254)+"ü", items[0].Description)
}

func TestNormalizeItemKeepsShortMultibyte(t *testing.T) {
	item := NormalizeItem(strings.Repeat("祭", 100))
	require.NotNil(t, item)
	assert.Equal(t, 100, utf8.RuneCountInString(*item))
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `[1]`, ExtractJSON("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, ExtractJSON("Here you go:\n```json [1] ``` enjoy"))
	assert.Equal(t, `[1]`, ExtractJSON("  [1]  "))
}

func TestItemMatches(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"true", true},
		{" TRUE\n", true},
		{"false", false},
		{"true, it is a mug", false},
	}

	for _, tt := range tests {
		gen := &stubGenerator{reply: tt.reply}
		got, err := New(gen).ItemMatches(context.Background(), "a mug of coffee", "cup")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "reply %q", tt.reply)
		assert.Contains(t, gen.prompts[0], `"a mug of coffee"`)
		assert.Contains(t, gen.prompts[0], `"cup"`)
	}
}

func TestQuickAndPlainChecklist(t *testing.T) {
	gen := &stubGenerator{reply: `[{"task":"Book flights","priority":1}]`}
	items, raw, err := New(gen).QuickChecklist(context.Background(), "Trip to Rome")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NotEmpty(t, raw)
	assert.Contains(t, gen.prompts[0], "Trip to Rome")

	gen = &stubGenerator{reply: "Book flights (Priority: very important)\n"}
	text, err := New(gen).PlainChecklist(context.Background(), "Trip to Rome")
	require.NoError(t, err)
	assert.Equal(t, "Book flights (Priority: very important)", text)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "clarify", StageClarify.String())
	assert.Equal(t, "checklist", StageChecklist.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}
