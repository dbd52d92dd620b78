package app

import (
	"reflect"
	"testing"
)

func TestParseFlashcardsWellFormedLines(t *testing.T) {
	generated := "Here are your flashcards:\n" +
		"Q: What is the capital of France? A: Paris\n" +
		"\n" +
		"Some commentary the model added.\n" +
		"Q: Largest planet? A: Jupiter  \n" +
		"A: answer without a question marker\n"

	cards, dropped := ParseFlashcards(generated)
	want := []FlashcardDraft{
		{Question: "What is the capital of France?", Answer: "Paris"},
		{Question: "Largest planet?", Answer: "Jupiter"},
	}
	if !reflect.DeepEqual(cards, want) {
		t.Fatalf("cards = %+v, want %+v", cards, want)
	}
	// Non-matching non-empty lines are reported, in source order.
	if len(dropped) != 3 {
		t.Fatalf("expected 3 dropped lines, got %d: %q", len(dropped), dropped)
	}
}

func TestParseFlashcardsSplitsOnFirstAnswerMarker(t *testing.T) {
	cards, _ := ParseFlashcards("Q: Who wrote A: B? A: Nobody")
	if len(cards) != 1 {
		t.Fatalf("expected one card, got %d", len(cards))
	}
	if cards[0].Question != "Who wrote" {
		t.Fatalf("question = %q", cards[0].Question)
	}
	if cards[0].Answer != "B? A: Nobody" {
		t.Fatalf("answer = %q", cards[0].Answer)
	}
}

func TestParseFlashcardsEmptyInput(t *testing.T) {
	cards, dropped := ParseFlashcards("")
	if len(cards) != 0 || len(dropped) != 0 {
		t.Fatalf("expected nothing, got cards=%v dropped=%v", cards, dropped)
	}
}

func TestParseExamQuestionsWithOptions(t *testing.T) {
	generated := "Q: What is 2+2? Options: 4, 3, 2, 1"
	questions, dropped := ParseExamQuestions(generated)
	if len(dropped) != 0 {
		t.Fatalf("unexpected dropped lines: %q", dropped)
	}
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	q := questions[0]
	if q.Question != "What is 2+2?" {
		t.Fatalf("question = %q", q.Question)
	}
	if !reflect.DeepEqual(q.Options, []string{"4", "3", "2", "1"}) {
		t.Fatalf("options = %v", q.Options)
	}
	// The recorded answer is always the first listed option, regardless of
	// which option is actually correct.
	if q.Answer != "4" {
		t.Fatalf("answer = %q, want first option", q.Answer)
	}
}

func TestParseExamQuestionsAnswerIsFirstOptionEvenWhenWrong(t *testing.T) {
	// The first option here is not the correct one; the stored answer must
	// still be the first option verbatim.
	questions, _ := ParseExamQuestions("Q: Capital of France? Options: London, Paris, Berlin, Rome")
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	if questions[0].Answer != "London" {
		t.Fatalf("answer = %q, want %q", questions[0].Answer, "London")
	}
}

func TestParseExamQuestionsMissingOptionsMarker(t *testing.T) {
	questions, _ := ParseExamQuestions("Q: A question with no options listed")
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	q := questions[0]
	if !reflect.DeepEqual(q.Options, []string{"A", "B", "C", "D"}) {
		t.Fatalf("expected placeholder options, got %v", q.Options)
	}
	if q.Answer != "A" {
		t.Fatalf("answer = %q, want %q", q.Answer, "A")
	}
}

func TestParseExamQuestionsDropsNonQuestionLines(t *testing.T) {
	generated := "Sure! Here are the questions.\nQ: One? Options: a, b, c, d\nGood luck!"
	questions, dropped := ParseExamQuestions(generated)
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped lines, got %d: %q", len(dropped), dropped)
	}
}
