package store

import "studyai/pkg/domain"

// Store defines persistence operations for users, documents, study
// material and chat messages.
type Store interface {
	// users
	SaveUser(user domain.User) (domain.User, error)
	HasUsername(username string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id uint) (domain.User, bool, error)
	ListUsernames(limit int) ([]string, error)

	// documents
	SaveDocument(doc domain.Document) (domain.Document, error)
	GetDocument(id uint) (domain.Document, bool, error)
	ListDocumentsByOwner(ownerID uint) ([]domain.Document, error)

	// study material; both save calls run in a single transaction so a
	// failed generation request persists nothing
	SaveFlashcards(cards []domain.Flashcard) error
	SaveExamQuestions(questions []domain.ExamQuestion) error
	ListFlashcardsByDocument(docID uint) ([]domain.Flashcard, error)
	ListExamQuestionsByDocument(docID uint) ([]domain.ExamQuestion, error)

	// messages
	SaveMessage(msg domain.Message) (domain.Message, error)
	ListMessagesInvolving(username string) ([]domain.Message, error)
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	NewSession(userID uint) (string, error)
	UserIDByToken(token string) (uint, bool, error)
}
