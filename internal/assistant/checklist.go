package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/models"
)

const (
	defaultDescription = "No description provided"

	// Column sizes of tasks.description and tasks.item, in characters.
	maxDescriptionLength = 255
	maxItemLength        = 100
)

var (
	ErrInvalidChecklist = errors.New("invalid checklist JSON")

	fencedJSON = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
)

type ChecklistItem struct {
	Description string
	Priority    int
	Item        *string
	DueDate     *time.Time
}

// ExtractJSON strips a ```json fence when the model wrapped its answer in one.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ParseChecklist decodes the model's task list, filling defaults for missing
// or unusable fields.
func ParseChecklist(text string) ([]ChecklistItem, error) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChecklist, err)
	}

	items := make([]ChecklistItem, 0, len(raw))
	for _, entry := range raw {
		items = append(items, ChecklistItem{
			Description: description(entry["task"]),
			Priority:    priority(entry["priority"]),
			Item:        NormalizeItem(stringValue(entry["item"])),
			DueDate:     dueDate(entry["due_date"]),
		})
	}
	return items, nil
}

// NormalizeItem maps blank and "none" to no required item.
func NormalizeItem(item string) *string {
	item = strings.TrimSpace(item)
	if item == "" || strings.EqualFold(item, "none") {
		return nil
	}
	item = truncate(item, maxItemLength)
	return &item
}

func description(v any) string {
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return defaultDescription
	}
	return truncate(s, maxDescriptionLength)
}

// truncate keeps at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func priority(v any) int {
	switch p := v.(type) {
	case float64:
		return models.ValidPriority(int(p))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.PriorityNormal
		}
		return models.ValidPriority(n)
	default:
		return models.PriorityNormal
	}
}

func dueDate(v any) *time.Time {
	s := stringValue(v)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
