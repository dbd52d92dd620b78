package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Identifiers are auto-incrementing
// integers; no foreign keys are declared, matching the historical schema.
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	DateOfBirth  string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type DocumentModel struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;index"`
	Filename   string    `gorm:"not null"`
	UploadedAt time.Time `gorm:"not null;autoCreateTime"`
}

type FlashcardModel struct {
	ID       uint   `gorm:"primaryKey"`
	DocID    uint   `gorm:"not null;index"`
	Question string `gorm:"not null"`
	Answer   string `gorm:"not null"`
}

type ExamModel struct {
	ID       uint           `gorm:"primaryKey"`
	DocID    uint           `gorm:"not null;index"`
	Question string         `gorm:"not null"`
	Options  datatypes.JSON `gorm:"type:jsonb;not null"`
	Answer   string         `gorm:"not null"`
}

type MessageModel struct {
	ID        uint      `gorm:"primaryKey"`
	Sender    string    `gorm:"not null;index"`
	Receiver  string    `gorm:"not null;index"`
	Message   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
