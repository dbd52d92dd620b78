package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"studyai/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &DocumentModel{}, &FlashcardModel{}, &ExamModel{}, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser inserts a new user and returns it with the generated ID.
func (s *GormStore) SaveUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// HasUsername checks if a username is taken.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id uint) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsernames returns up to limit usernames in insertion order.
func (s *GormStore) ListUsernames(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	var names []string
	if err := s.db.Model(&UserModel{}).Order("id ASC").Limit(limit).Pluck("username", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// SaveDocument inserts a new document row and returns it with the
// generated ID. Duplicate filenames are allowed.
func (s *GormStore) SaveDocument(d domain.Document) (domain.Document, error) {
	model := documentToModel(d)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Document{}, err
	}
	return documentFromModel(model), nil
}

// GetDocument retrieves a document by primary key.
func (s *GormStore) GetDocument(id uint) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// ListDocumentsByOwner returns documents uploaded by a user, oldest first.
func (s *GormStore) ListDocumentsByOwner(ownerID uint) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Where("user_id = ?", ownerID).Order("uploaded_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(models))
	for _, m := range models {
		docs = append(docs, documentFromModel(m))
	}
	return docs, nil
}

// SaveFlashcards inserts all cards in one transaction.
func (s *GormStore) SaveFlashcards(cards []domain.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}
	models := make([]FlashcardModel, 0, len(cards))
	for _, card := range cards {
		models = append(models, flashcardToModel(card))
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&models, 200).Error
	})
}

// SaveExamQuestions inserts all questions in one transaction.
func (s *GormStore) SaveExamQuestions(questions []domain.ExamQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	models := make([]ExamModel, 0, len(questions))
	for _, q := range questions {
		models = append(models, examToModel(q))
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&models, 200).Error
	})
}

// ListFlashcardsByDocument returns stored cards for a document.
func (s *GormStore) ListFlashcardsByDocument(docID uint) ([]domain.Flashcard, error) {
	var models []FlashcardModel
	if err := s.db.Where("doc_id = ?", docID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	cards := make([]domain.Flashcard, 0, len(models))
	for _, m := range models {
		cards = append(cards, flashcardFromModel(m))
	}
	return cards, nil
}

// ListExamQuestionsByDocument returns stored exam questions for a document.
func (s *GormStore) ListExamQuestionsByDocument(docID uint) ([]domain.ExamQuestion, error) {
	var models []ExamModel
	if err := s.db.Where("doc_id = ?", docID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	questions := make([]domain.ExamQuestion, 0, len(models))
	for _, m := range models {
		questions = append(questions, examFromModel(m))
	}
	return questions, nil
}

// SaveMessage records a chat message.
func (s *GormStore) SaveMessage(msg domain.Message) (domain.Message, error) {
	model := messageToModel(msg)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Message{}, err
	}
	return messageFromModel(model), nil
}

// ListMessagesInvolving returns every message where the username appears as
// sender or receiver, ordered by creation time ascending.
func (s *GormStore) ListMessagesInvolving(username string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("receiver = ? OR sender = ?", username, username).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		DateOfBirth:  u.DateOfBirth,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		DateOfBirth:  m.DateOfBirth,
		CreatedAt:    m.CreatedAt,
	}
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:         d.ID,
		UserID:     d.OwnerID,
		Filename:   d.Filename,
		UploadedAt: d.UploadedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:         m.ID,
		OwnerID:    m.UserID,
		Filename:   m.Filename,
		UploadedAt: m.UploadedAt,
	}
}

func flashcardToModel(c domain.Flashcard) FlashcardModel {
	return FlashcardModel{
		ID:       c.ID,
		DocID:    c.DocumentID,
		Question: c.Question,
		Answer:   c.Answer,
	}
}

func flashcardFromModel(m FlashcardModel) domain.Flashcard {
	return domain.Flashcard{
		ID:         m.ID,
		DocumentID: m.DocID,
		Question:   m.Question,
		Answer:     m.Answer,
	}
}

func examToModel(q domain.ExamQuestion) ExamModel {
	rawOptions, _ := json.Marshal(q.Options)
	return ExamModel{
		ID:       q.ID,
		DocID:    q.DocumentID,
		Question: q.Question,
		Options:  rawOptions,
		Answer:   q.Answer,
	}
}

func examFromModel(m ExamModel) domain.ExamQuestion {
	var options []string
	if len(m.Options) > 0 {
		_ = json.Unmarshal(m.Options, &options)
	}
	return domain.ExamQuestion{
		ID:         m.ID,
		DocumentID: m.DocID,
		Question:   m.Question,
		Options:    options,
		Answer:     m.Answer,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
		Message:   msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:        m.ID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Body:      m.Message,
		CreatedAt: m.CreatedAt,
	}
}
