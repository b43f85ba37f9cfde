package assistant

import (
	"fmt"
	"strings"
)

const clarifyPrompt = `
Based on the following event description: "%[1]s", ask ONE clarifying question that will help create a more specific checklist.
Do not ask about things already mentioned in "%[1]s".
Return ONLY the question.
`

const priorityPrompt = `
Based on the following conversation:
%[1]s
Ask the user what aspect of the event they want to prioritize most (e.g., fun, efficiency, preparation, safety, etc...).
Create the list of aspects based on their event, not the template. You can guess with "%[2]s".
Format your response with just the question and a short list of example options.
Format the list into just a normal list, not a markdown list.
Do not ask about things already mentioned in the chat: %[1]s
`

const checklistPrompt = `
Based on the following conversation:
%[1]s
Generate a JSON checklist with at least 8 pre-event tasks related to the event "%[2]s".
Use the priorities expressed in the second question to set 'priority' (1: important, 2: necessary, 3: normal).
Each task should include:
- 'task': the description of the task.
- 'priority': based on how relevant it is to the user's stated priorities.
- 'item': the physical item involved. For example:
    - If the task is "Bring guitar", item = "guitar"
    - If the task is "Book hotel", item = "none"
    - Remember the item must be 1 item, not a list of items.

Return ONLY the JSON. No explanations. No markdown. Just pure JSON like:
[
    {"task": "Book hotel", "priority": 1, "item": "none"},
    {"task": "Pack sunscreen", "priority": 2, "item": "sunscreen"},
    {"task": "Buy snacks", "priority": 3, "item": "snacks"}
]
`

const quickChecklistPrompt = `
Generate a JSON checklist of at least 8 tasks for the following event: %s.
Include keys for 'task', 'priority' (1:important/2:necessary/3:normal).

Example JSON output:
[
    {"task": "Book flights", "priority": 1},
    {"task": "Pack sunscreen", "priority": 2}
]

Return ONLY the JSON. Do not include any other text or explanations, and do not wrap the JSON in markdown code blocks.
`

const plainChecklistPrompt = `
Generate a checklist for the following event: %s.
Include tasks with priorities.
Example output:
Book flights (Priority: very important)
Pack sunscreen (Priority: necessary)
Buy snacks (Priority: normal)
Return the checklist as plain text, with each task on a new line.
`

const itemMatchPrompt = `
Analyze if the following image caption likely describes an image that is related to the required item.
Required item: "%s"
Caption: "%s"
Try to be easy with this, and don't be too strict.
Consider synonyms, context, and partial matches (e.g., 'mug' for 'cup', 'car' in 'parking lot with cars').
Respond with 'true' if the item is likely present, 'false' if not, just "true" or "false".
`

func formatHistory(history []string) string {
	return strings.Join(history, "\n")
}

// BuildPrompt renders the prompt for the given conversation stage.
func BuildPrompt(stage Stage, userInput, eventName string, history []string) string {
	switch stage {
	case StageClarify:
		return fmt.Sprintf(clarifyPrompt, userInput)
	case StagePriority:
		return fmt.Sprintf(priorityPrompt, formatHistory(history), eventName)
	default:
		return fmt.Sprintf(checklistPrompt, formatHistory(history), eventName)
	}
}

func QuickChecklistPrompt(message string) string {
	return fmt.Sprintf(quickChecklistPrompt, message)
}

func PlainChecklistPrompt(message string) string {
	return fmt.Sprintf(plainChecklistPrompt, message)
}

func ItemMatchPrompt(caption, item string) string {
	return fmt.Sprintf(itemMatchPrompt, strings.ToLower(item), caption)
}
