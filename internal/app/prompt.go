package app

import "fmt"

// Prompt templates sent to the completion service. Document content is
// embedded verbatim; the templates pin the expected output shape that
// the response parser understands.

const flashcardPromptTemplate = `Create 5 simple Q&A flashcards from the content below.
Make answers informative and include relevant context from general knowledge sources.
Format each flashcard on its own line as "Q: <question> A: <answer>".
Content:
%s`

const examPromptTemplate = `Create 3 multiple-choice questions (4 options each) from this content.
Make the questions educational and include relevant context from general knowledge sources.
Specify the correct answer for each question.
Format each question on its own line as "Q: <question> Options: <a>, <b>, <c>, <d>".
Content:
%s`

// FlashcardPrompt builds the fixed flashcard instruction around the
// document content.
func FlashcardPrompt(content string) string {
	return fmt.Sprintf(flashcardPromptTemplate, content)
}

// ExamPrompt builds the fixed multiple-choice instruction around the
// document content.
func ExamPrompt(content string) string {
	return fmt.Sprintf(examPromptTemplate, content)
}
