// Package assistant drives the checklist conversation: a clarifying question,
// a question about what to prioritize, then a generated JSON checklist.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventease-dev/eventease/internal/ai"
)

type Stage int

const (
	StageClarify Stage = iota
	StagePriority
	StageChecklist
)

// questionsBeforeChecklist is how many questions the assistant asks.
const questionsBeforeChecklist = 2

func (s Stage) String() string {
	switch s {
	case StageClarify:
		return "clarify"
	case StagePriority:
		return "priority"
	case StageChecklist:
		return "checklist"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// NextStage picks the stage from the transcript so far.
func NextStage(history []string, questionIndex int) Stage {
	if len(history) == 0 {
		return StageClarify
	}
	if questionIndex < questionsBeforeChecklist {
		return StagePriority
	}
	return StageChecklist
}

type Turn struct {
	UserInput     string
	EventName     string
	History       []string
	QuestionIndex int
}

// Reply is either a question (Items nil) or a finished checklist.
type Reply struct {
	Stage         Stage
	Question      string
	History       []string
	QuestionIndex int
	Items         []ChecklistItem
	Raw           string
}

func (r Reply) IsChecklist() bool {
	return r.Stage == StageChecklist
}

type Assistant struct {
	gen ai.Generator
}

func New(gen ai.Generator) *Assistant {
	return &Assistant{gen: gen}
}

// Converse advances the conversation by one turn. A malformed checklist is
// returned as ErrInvalidChecklist with the raw model output in Reply.Raw.
func (a *Assistant) Converse(ctx context.Context, turn Turn) (Reply, error) {
	stage := NextStage(turn.History, turn.QuestionIndex)

	// The answer being sent now belongs in the transcript the model sees.
	transcript := turn.History
	if stage != StageClarify && strings.TrimSpace(turn.UserInput) != "" {
		transcript = append(append(make([]string, 0, len(turn.History)+1), turn.History...), "User: "+turn.UserInput)
	}
	prompt := BuildPrompt(stage, turn.UserInput, turn.EventName, transcript)

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return Reply{Stage: stage}, err
	}
	text = strings.TrimSpace(text)

	if stage != StageChecklist {
		history := make([]string, 0, len(turn.History)+2)
		history = append(history, turn.History...)
		history = append(history, "User: "+turn.UserInput, "Bot: "+text)

		return Reply{
			Stage:         stage,
			Question:      text,
			History:       history,
			QuestionIndex: turn.QuestionIndex + 1,
		}, nil
	}

	items, err := ParseChecklist(text)
	if err != nil {
		return Reply{Stage: stage, Raw: text, History: turn.History, QuestionIndex: turn.QuestionIndex}, err
	}

	return Reply{
		Stage:         stage,
		History:       turn.History,
		QuestionIndex: turn.QuestionIndex,
		Items:         items,
		Raw:           text,
	}, nil
}

// QuickChecklist generates a checklist in one shot for a logged-in user.
func (a *Assistant) QuickChecklist(ctx context.Context, message string) ([]ChecklistItem, string, error) {
	text, err := a.gen.Generate(ctx, QuickChecklistPrompt(message))
	if err != nil {
		return nil, "", err
	}
	text = strings.TrimSpace(text)

	items, err := ParseChecklist(text)
	return items, text, err
}

// PlainChecklist returns a text checklist for anonymous visitors.
func (a *Assistant) PlainChecklist(ctx context.Context, message string) (string, error) {
	text, err := a.gen.Generate(ctx, PlainChecklistPrompt(message))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ItemMatches asks the model whether caption shows item. Anything but "true" is a no.
func (a *Assistant) ItemMatches(ctx context.Context, caption, item string) (bool, error) {
	text, err := a.gen.Generate(ctx, ItemMatchPrompt(caption, item))
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(text)) == "true", nil
}
