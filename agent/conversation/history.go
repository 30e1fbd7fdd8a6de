package conversation

import (
	"strings"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

// DefaultWindow is the number of most recent turns passed to retrieval.
const DefaultWindow = 5

// Only these labels open a turn; any other "Label:" line is continuation text.
var speakerLabels = map[string]contractx.Speaker{
	"user":      contractx.SpeakerUser,
	"human":     contractx.SpeakerUser,
	"assistant": contractx.SpeakerAssistant,
}

// Parse reads a "SPEAKER: text" transcript, oldest turn first. Lines without a
// speaker label continue the previous turn; a leading unlabeled line is
// attributed to the user.
func Parse(raw string) []contractx.Turn {
	var turns []contractx.Turn
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if speaker, text, ok := splitLabel(trimmed); ok {
			turns = append(turns, contractx.Turn{Speaker: speaker, Text: text})
			continue
		}

		if len(turns) == 0 {
			turns = append(turns, contractx.Turn{Speaker: contractx.SpeakerUser, Text: trimmed})
			continue
		}
		last := &turns[len(turns)-1]
		if last.Text == "" {
			last.Text = trimmed
		} else {
			last.Text += "\n" + trimmed
		}
	}
	return turns
}

func splitLabel(line string) (contractx.Speaker, string, bool) {
	label, text, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	speaker, ok := speakerLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", "", false
	}
	return speaker, strings.TrimSpace(text), true
}

// Window returns at most n of the most recent turns. The result never aliases
// the input slice.
func Window(turns []contractx.Turn, n int) []contractx.Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	start := 0
	if len(turns) > n {
		start = len(turns) - n
	}
	out := make([]contractx.Turn, len(turns)-start)
	copy(out, turns[start:])
	return out
}

// Render formats turns as "SPEAKER: text" lines.
func Render(turns []contractx.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.ToUpper(string(turn.Speaker)))
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}

// Contextualize prefixes the rendered history to the query when there is any.
func Contextualize(query string, turns []contractx.Turn) string {
	rendered := Render(turns)
	if rendered == "" {
		return query
	}
	return "Conversation so far:\n" + rendered + "\n\nCurrent question: " + query
}
