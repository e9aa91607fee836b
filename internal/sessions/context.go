package sessions

import (
	"strings"

	"code-assistant/internal/shared/util"
)

const (
	// ContextMessages is how many recent turns feed a follow-up question.
	ContextMessages = 6
	// ContextMessageChars caps each turn in the follow-up context.
	ContextMessageChars = 300

	memoryCodeChars     = 200
	memoryResponseChars = 1000
)

// ChatPrompt renders the follow-up question with the last ContextMessages
// turns of history in front of it.
func ChatPrompt(history []Message, question string) string {
	var b strings.Builder
	if len(history) > 0 {
		if len(history) > ContextMessages {
			history = history[len(history)-ContextMessages:]
		}
		b.WriteString("Previous conversation context:\n")
		for _, m := range history {
			label := "User"
			if m.Role == RoleAssistant {
				label = "Assistant"
			}
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(util.Truncate(m.Content, ContextMessageChars, "..."))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Current question: ")
	b.WriteString(question)
	return b.String()
}

// AnalysisTurn is the pair of messages remembered after an analysis. Code
// and response are shortened so memory stays small.
func AnalysisTurn(analysisType, code, response string) []Message {
	return []Message{
		{Role: RoleUser, Content: "Analyze this " + analysisType + " code: " + util.Truncate(code, memoryCodeChars, "...")},
		{Role: RoleAssistant, Content: util.Truncate(response, memoryResponseChars, "...")},
	}
}

// Turn is a plain question and answer pair.
func Turn(question, answer string) []Message {
	return []Message{
		{Role: RoleUser, Content: question},
		{Role: RoleAssistant, Content: answer},
	}
}
