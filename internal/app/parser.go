package app

import "strings"

// FlashcardDraft is one parsed question/answer pair, not yet persisted.
type FlashcardDraft struct {
	Question string
	Answer   string
}

// ExamDraft is one parsed multiple-choice question, not yet persisted.
type ExamDraft struct {
	Question string
	Options  []string
	Answer   string
}

// placeholderOptions substitutes for a question line that carries no
// "Options:" marker, so downstream consumers always see four options.
var placeholderOptions = []string{"A", "B", "C", "D"}

// ParseFlashcards extracts flashcards from completion output. A line
// qualifies only when it contains both the "Q:" and "A:" markers; it is
// split on the first "A:", the "Q:" marker is stripped, and both sides are
// trimmed. Every non-empty line that does not qualify is returned as
// dropped so callers can log the data loss.
func ParseFlashcards(generated string) ([]FlashcardDraft, []string) {
	var cards []FlashcardDraft
	var dropped []string
	for _, line := range strings.Split(generated, "\n") {
		if !strings.Contains(line, "Q:") || !strings.Contains(line, "A:") {
			if strings.TrimSpace(line) != "" {
				dropped = append(dropped, line)
			}
			continue
		}
		q, a, _ := strings.Cut(line, "A:")
		cards = append(cards, FlashcardDraft{
			Question: strings.TrimSpace(strings.ReplaceAll(q, "Q:", "")),
			Answer:   strings.TrimSpace(a),
		})
	}
	return cards, dropped
}

// ParseExamQuestions extracts multiple-choice questions from completion
// output. A line qualifies when it contains "Q:"; it is split on the
// "Options:" marker, and a missing marker substitutes the fixed
// placeholder option set. Options are split on commas with no escaping.
// The recorded answer is always the first option, exactly as the
// historical pipeline stored it.
func ParseExamQuestions(generated string) ([]ExamDraft, []string) {
	var questions []ExamDraft
	var dropped []string
	for _, line := range strings.Split(generated, "\n") {
		if !strings.Contains(line, "Q:") {
			if strings.TrimSpace(line) != "" {
				dropped = append(dropped, line)
			}
			continue
		}
		parts := strings.Split(line, "Options:")
		options := append([]string(nil), placeholderOptions...)
		if len(parts) > 1 {
			raw := strings.Split(parts[1], ",")
			options = make([]string, 0, len(raw))
			for _, part := range raw {
				options = append(options, strings.TrimSpace(part))
			}
		}
		questions = append(questions, ExamDraft{
			Question: strings.TrimSpace(strings.ReplaceAll(parts[0], "Q:", "")),
			Options:  options,
			Answer:   options[0],
		})
	}
	return questions, dropped
}
