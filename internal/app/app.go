package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"studyai/internal/util"
	"studyai/pkg/ai"
	"studyai/pkg/auth"
	"studyai/pkg/domain"
	"studyai/pkg/storage"
	"studyai/pkg/store"
)

const (
	defaultMaxCompletionTokens = 700
	defaultPeerLimit           = 5
)

// Config holds runtime dependencies for the core application.
type Config struct {
	Store               store.Store
	Sessions            store.SessionStore
	Blobs               storage.BlobStore
	Generator           ai.TextGenerator
	MaxCompletionTokens int
	PeerLimit           int
}

// App wires storage, blob storage, sessions and the completion client into
// the study-material and messaging flows.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	blobs     storage.BlobStore
	generator ai.TextGenerator
	maxTokens int
	peerLimit int
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("text generator required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	maxTokens := cfg.MaxCompletionTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxCompletionTokens
	}
	peerLimit := cfg.PeerLimit
	if peerLimit <= 0 {
		peerLimit = defaultPeerLimit
	}
	return &App{
		store:     cfg.Store,
		sessions:  cfg.Sessions,
		blobs:     cfg.Blobs,
		generator: cfg.Generator,
		maxTokens: maxTokens,
		peerLimit: peerLimit,
	}, nil
}

// Register creates a new account and issues a session token.
func (a *App) Register(username, password, dateOfBirth string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", ErrUsernameAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	taken, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.User{}, "", ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}
	user, err := a.store.SaveUser(domain.User{
		Username:     username,
		PasswordHash: hash,
		DateOfBirth:  strings.TrimSpace(dateOfBirth),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(username, password string) (domain.User, string, error) {
	user, ok, err := a.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// UserByToken resolves a session token to its account.
func (a *App) UserByToken(token string) (domain.User, bool, error) {
	id, ok, err := a.sessions.UserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	return a.store.GetUserByID(id)
}

// UploadDocument stores the uploaded bytes and records the metadata row.
// The filename is sanitized here; a re-upload with a colliding sanitized
// name overwrites the stored blob while creating a fresh metadata row.
func (a *App) UploadDocument(ctx context.Context, ownerID uint, filename string, r io.Reader, size int64) (domain.Document, error) {
	safe := storage.SafeFilename(filename)
	if err := a.blobs.Save(ctx, safe, r, size); err != nil {
		return domain.Document{}, fmt.Errorf("store upload: %w", err)
	}
	doc, err := a.store.SaveDocument(domain.Document{
		OwnerID:    ownerID,
		Filename:   safe,
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns the documents uploaded by a user.
func (a *App) ListDocuments(ownerID uint) ([]domain.Document, error) {
	docs, err := a.store.ListDocumentsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// generateConcurrency bounds in-flight completion requests per batch.
const generateConcurrency = 4

// documentContent resolves a document id to its extracted text. The second
// return is false when the id is unknown or the backing blob is gone; both
// cases are skipped by the generation pipelines rather than failing the
// batch.
func (a *App) documentContent(ctx context.Context, docID uint) (string, bool, error) {
	doc, ok, err := a.store.GetDocument(docID)
	if err != nil {
		return "", false, fmt.Errorf("fetch document: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	content, err := a.loadText(ctx, doc.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return content, true, nil
}

// GenerateFlashcards runs the generation pipeline over the given document
// ids. Unknown ids and documents with a missing backing blob are skipped
// without error. A completion-service failure aborts the whole batch and
// persists nothing; on success all parsed cards are committed at once after
// every document completes.
func (a *App) GenerateFlashcards(ctx context.Context, documentIDs []uint) ([]domain.Flashcard, error) {
	logger := util.LoggerFromContext(ctx)
	perDoc := make([][]domain.Flashcard, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(generateConcurrency)
	for i, docID := range documentIDs {
		i, docID := i, docID
		g.Go(func() error {
			content, ok, err := a.documentContent(gctx, docID)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			output, err := a.generator.GenerateText(gctx, "", FlashcardPrompt(content), a.maxTokens)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrCompletionFailed, err)
			}
			cards, dropped := ParseFlashcards(output)
			if len(dropped) > 0 {
				logger.Warn("flashcard lines dropped", "document_id", docID, "dropped", len(dropped))
			}
			out := make([]domain.Flashcard, 0, len(cards))
			for _, card := range cards {
				out = append(out, domain.Flashcard{
					DocumentID: docID,
					Question:   card.Question,
					Answer:     card.Answer,
				})
			}
			perDoc[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []domain.Flashcard
	for _, cards := range perDoc {
		all = append(all, cards...)
	}
	if err := a.store.SaveFlashcards(all); err != nil {
		return nil, fmt.Errorf("save flashcards: %w", err)
	}
	return all, nil
}

// GenerateExams runs the generation pipeline for multiple-choice exam
// questions, with the same skip and commit semantics as GenerateFlashcards.
func (a *App) GenerateExams(ctx context.Context, documentIDs []uint) ([]domain.ExamQuestion, error) {
	logger := util.LoggerFromContext(ctx)
	perDoc := make([][]domain.ExamQuestion, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(generateConcurrency)
	for i, docID := range documentIDs {
		i, docID := i, docID
		g.Go(func() error {
			content, ok, err := a.documentContent(gctx, docID)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			output, err := a.generator.GenerateText(gctx, "", ExamPrompt(content), a.maxTokens)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrCompletionFailed, err)
			}
			questions, dropped := ParseExamQuestions(output)
			if len(dropped) > 0 {
				logger.Warn("exam lines dropped", "document_id", docID, "dropped", len(dropped))
			}
			out := make([]domain.ExamQuestion, 0, len(questions))
			for _, q := range questions {
				out = append(out, domain.ExamQuestion{
					DocumentID: docID,
					Question:   q.Question,
					Options:    q.Options,
					Answer:     q.Answer,
				})
			}
			perDoc[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []domain.ExamQuestion
	for _, questions := range perDoc {
		all = append(all, questions...)
	}
	if err := a.store.SaveExamQuestions(all); err != nil {
		return nil, fmt.Errorf("save exam questions: %w", err)
	}
	return all, nil
}

// ListPeers returns up to the configured number of usernames. This is a
// placeholder directory: the requester is not excluded and there is no
// ranking.
func (a *App) ListPeers() ([]string, error) {
	peers, err := a.store.ListUsernames(a.peerLimit)
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	return peers, nil
}

// History returns every message involving the given username as sender or
// receiver, ordered by creation time ascending.
func (a *App) History(peer string) ([]domain.Message, error) {
	msgs, err := a.store.ListMessagesInvolving(peer)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

// SendMessage persists a chat message and returns the stored row.
func (a *App) SendMessage(sender, receiver, body string) (domain.Message, error) {
	msg, err := a.store.SaveMessage(domain.Message{
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}
