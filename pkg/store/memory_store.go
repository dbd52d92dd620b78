package store

import (
	"sort"
	"sync"
	"time"

	"studyai/pkg/domain"
)

// MemoryStore keeps all rows in-process. It backs tests and local
// development without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     map[string]uint
	users      map[uint]domain.User
	byUsername map[string]uint
	documents  map[uint]domain.Document
	flashcards []domain.Flashcard
	exams      []domain.ExamQuestion
	messages   []domain.Message
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     make(map[string]uint),
		users:      make(map[uint]domain.User),
		byUsername: make(map[string]uint),
		documents:  make(map[uint]domain.Document),
	}
}

func (m *MemoryStore) nextFor(table string) uint {
	m.nextID[table]++
	return m.nextID[table]
}

// SaveUser inserts a user, assigning the next ID.
func (m *MemoryStore) SaveUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextFor("users")
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	m.byUsername[u.Username] = u.ID
	return u, nil
}

// HasUsername checks if a username is taken.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byUsername[username]
	return ok, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUsername[username]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id uint) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsernames returns up to limit usernames in insertion order.
func (m *MemoryStore) ListUsernames(limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 5
	}
	ids := make([]uint, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	names := make([]string, 0, limit)
	for _, id := range ids {
		if len(names) == limit {
			break
		}
		names = append(names, m.users[id].Username)
	}
	return names, nil
}

// SaveDocument inserts a document row, assigning the next ID.
func (m *MemoryStore) SaveDocument(d domain.Document) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextFor("documents")
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	m.documents[d.ID] = d
	return d, nil
}

// GetDocument retrieves a document by ID.
func (m *MemoryStore) GetDocument(id uint) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	return d, ok, nil
}

// ListDocumentsByOwner returns documents uploaded by a user, oldest first.
func (m *MemoryStore) ListDocumentsByOwner(ownerID uint) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]domain.Document, 0)
	for _, d := range m.documents {
		if d.OwnerID == ownerID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// SaveFlashcards appends all cards.
func (m *MemoryStore) SaveFlashcards(cards []domain.Flashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, card := range cards {
		card.ID = m.nextFor("flashcards")
		m.flashcards = append(m.flashcards, card)
	}
	return nil
}

// SaveExamQuestions appends all questions.
func (m *MemoryStore) SaveExamQuestions(questions []domain.ExamQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		q.ID = m.nextFor("exams")
		m.exams = append(m.exams, q)
	}
	return nil
}

// ListFlashcardsByDocument returns stored cards for a document.
func (m *MemoryStore) ListFlashcardsByDocument(docID uint) ([]domain.Flashcard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cards := make([]domain.Flashcard, 0)
	for _, card := range m.flashcards {
		if card.DocumentID == docID {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// ListExamQuestionsByDocument returns stored exam questions for a document.
func (m *MemoryStore) ListExamQuestionsByDocument(docID uint) ([]domain.ExamQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	questions := make([]domain.ExamQuestion, 0)
	for _, q := range m.exams {
		if q.DocumentID == docID {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// SaveMessage appends a chat message.
func (m *MemoryStore) SaveMessage(msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.nextFor("messages")
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

// ListMessagesInvolving returns messages where the username is sender or
// receiver, ordered by creation time ascending.
func (m *MemoryStore) ListMessagesInvolving(username string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]domain.Message, 0)
	for _, msg := range m.messages {
		if msg.Sender == username || msg.Receiver == username {
			msgs = append(msgs, msg)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}
