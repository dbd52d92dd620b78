package domain

import "time"

// User is a registered account. Accounts are created at registration and
// immutable afterwards.
type User struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DateOfBirth  string    `json:"dateOfBirth"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Document is an uploaded text resource from which study material is
// generated. The row records metadata only; the bytes live in blob storage
// under Filename.
type Document struct {
	ID         uint      `json:"id"`
	OwnerID    uint      `json:"ownerId"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Flashcard is a question/answer pair derived from a document.
type Flashcard struct {
	ID         uint   `json:"-"`
	DocumentID uint   `json:"-"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// ExamQuestion is a four-option multiple-choice question derived from a
// document. Answer holds the recorded correct option.
type ExamQuestion struct {
	ID         uint     `json:"-"`
	DocumentID uint     `json:"-"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
}

// Message is a single chat message between two users, referenced by
// username. Messages are immutable and ordered by creation time.
type Message struct {
	ID        uint      `json:"-"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"-"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
