package rag

import "strings"

// Task selects the sanitizer's marker and rule set.
type Task int

const (
	TaskAnswer Task = iota
	TaskSummary
	TaskComparison
)

func (t Task) marker() string {
	switch t {
	case TaskSummary:
		return summaryMarker
	case TaskComparison:
		return comparisonMarker
	default:
		return answerMarker
	}
}

// echoPrefixMin is the shortest shared raw/prompt prefix worth stripping.
// Below this, the match is more likely coincidence than an echoed prompt.
const echoPrefixMin = 20

// Clean strips leaked prompt and context fragments from raw model output.
// It is a best-effort, deterministic rule set, not a parser: keep whatever
// follows the last task marker, drop an echoed prompt prefix, drop lines
// that reproduce the template or page-annotated context. If nothing survives
// the stripping, the raw text is returned unmodified rather than an empty
// string.
func Clean(task Task, raw, prompt string) string {
	out := raw

	if i := strings.LastIndex(out, task.marker()); i >= 0 {
		out = out[i+len(task.marker()):]
	} else if n := commonPrefixLen(out, prompt); n >= echoPrefixMin {
		out = out[n:]
	}

	var kept []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[Page ") {
			continue
		}
		if trimmed != "" && isTemplateLine(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	out = strings.TrimSpace(strings.Join(kept, "\n"))

	if out == "" {
		return raw
	}
	return out
}

func isTemplateLine(line string) bool {
	switch {
	case line == askInstruction, line == summaryInstruction, line == compareInstruction:
		return true
	case line == "Context:", line == "Text:":
		return true
	case strings.HasPrefix(line, "Question: "):
		return true
	}
	return false
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
