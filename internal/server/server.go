package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"studyai/internal/app"
	"studyai/internal/chat"
	"studyai/internal/ratelimit"
	"studyai/internal/util"
	"studyai/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                      *app.App
	Hub                      *chat.Hub
	RedisAddr                string
	RedisPassword            string
	RateLimitPerMinute       int
	UploadRateLimitPerMinute int
	MaxUploadBytes           int64
	AllowedExtensions        []string
}

// Server exposes the HTTP and websocket endpoints for the backend.
type Server struct {
	app               *app.App
	hub               *chat.Hub
	mux               *http.ServeMux
	upgrader          websocket.Upgrader
	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
	generateLimiter   *ratelimit.FixedWindowLimiter
	uploadLimiter     *ratelimit.FixedWindowLimiter
	authLimiter       *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("app required")
	}
	if cfg.Hub == nil {
		return nil, fmt.Errorf("hub required")
	}
	generateLimit := cfg.RateLimitPerMinute
	if generateLimit <= 0 {
		generateLimit = 120
	}
	uploadLimit := cfg.UploadRateLimitPerMinute
	if uploadLimit <= 0 {
		uploadLimit = 20
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "studyai:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	generateLimiter, err := newLimiter("generate", generateLimit)
	if err != nil {
		return nil, err
	}
	uploadLimiter, err := newLimiter("upload", uploadLimit)
	if err != nil {
		return nil, err
	}
	authLimiter, err := newLimiter("auth", generateLimit)
	if err != nil {
		return nil, err
	}
	s := &Server{
		app: cfg.App,
		hub: cfg.Hub,
		mux: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client is served from another origin in dev.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedExtensions),
		generateLimiter:   generateLimiter,
		uploadLimiter:     uploadLimiter,
		authLimiter:       authLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestLog(util.WithRequestID(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// study material
	s.mux.HandleFunc("/upload", s.handleUpload)
	s.mux.HandleFunc("/flashcards", s.handleFlashcards)
	s.mux.HandleFunc("/exams", s.handleExams)

	// messaging
	s.mux.HandleFunc("/peers", s.handlePeers)
	s.mux.HandleFunc("/messages/", s.handleHistory)
	s.mux.HandleFunc("/ws", s.handleWS)

	// accounts
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.Handle("/api/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("/api/documents", s.authenticated(s.handleDocuments))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.uploadLimiter, "too many uploads") {
		s.audit(r, "upload", "rate_limited")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.audit(r, "upload", "fail", "reason", "invalid_multipart")
		writeFailure(w, http.StatusBadRequest, "Missing file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.audit(r, "upload", "fail", "reason", "missing_file")
		writeFailure(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	ownerID := parseOwnerID(r.FormValue("user_id"))
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := s.allowedExtensions[ext]; !ok {
		s.audit(r, "upload", "fail", "reason", "extension_not_allowed", "ext", ext)
		writeFailure(w, http.StatusBadRequest, "File type not allowed")
		return
	}
	doc, err := s.app.UploadDocument(r.Context(), ownerID, header.Filename, file, header.Size)
	if err != nil {
		s.audit(r, "upload", "fail", "reason", err.Error())
		writeFailure(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	s.audit(r, "upload", "success", "document_id", doc.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "File uploaded",
		"document_id": doc.ID,
		"filename":    doc.Filename,
	})
}

type generateRequest struct {
	DocumentIDs []uint `json:"document_ids"`
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.generateLimiter, "too many generation requests") {
		s.audit(r, "flashcards", "rate_limited")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "flashcards", "fail", "reason", "invalid_json")
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cards, err := s.app.GenerateFlashcards(r.Context(), req.DocumentIDs)
	if err != nil {
		s.audit(r, "flashcards", "fail", "reason", err.Error())
		writeGenerateError(w, err)
		return
	}
	s.audit(r, "flashcards", "success", "count", len(cards))
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"flashcards": cards,
	})
}

func (s *Server) handleExams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.generateLimiter, "too many generation requests") {
		s.audit(r, "exams", "rate_limited")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "exams", "fail", "reason", "invalid_json")
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	questions, err := s.app.GenerateExams(r.Context(), req.DocumentIDs)
	if err != nil {
		s.audit(r, "exams", "fail", "reason", err.Error())
		writeGenerateError(w, err)
		return
	}
	s.audit(r, "exams", "success", "count", len(questions))
	if questions == nil {
		questions = []domain.ExamQuestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"exams":   questions,
	})
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	peers, err := s.app.ListPeers()
	if err != nil {
		s.audit(r, "peers", "fail", "reason", err.Error())
		writeFailure(w, http.StatusInternalServerError, "could not list peers")
		return
	}
	if peers == nil {
		peers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"peers":   peers,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	peer := strings.TrimPrefix(r.URL.Path, "/messages/")
	if peer == "" || strings.Contains(peer, "/") {
		writeFailure(w, http.StatusBadRequest, "peer required")
		return
	}
	msgs, err := s.app.History(peer)
	if err != nil {
		s.audit(r, "history", "fail", "reason", err.Error())
		writeFailure(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": msgs,
	})
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.authLimiter, "too many registration attempts") {
		s.audit(r, "register", "rate_limited")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "register", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Register(req.Username, req.Password, req.DateOfBirth)
	if err != nil {
		s.audit(r, "register", "fail", "reason", err.Error())
		writeAuthError(w, err)
		return
	}
	s.audit(r, "register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.authLimiter, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		s.audit(r, "login", "fail", "reason", err.Error())
		writeAuthError(w, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	user, found, err := s.app.UserByToken(token)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	docs, err := s.app.ListDocuments(user.ID)
	if err != nil {
		s.audit(r, "documents", "fail", "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "could not list documents")
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func writeGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrCompletionFailed) {
		writeFailure(w, http.StatusBadGateway, "completion service failed")
		return
	}
	writeFailure(w, http.StatusInternalServerError, "generation failed")
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrUsernameAndPasswordRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure is the failure shape of the study-material endpoints, which
// report errors as {"success": false, "message": ...}.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

// parseOwnerID defaults to user 1 when the form field is absent or
// malformed, mirroring the historical upload form behavior.
func parseOwnerID(value string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || n == 0 {
		return 1
	}
	return uint(n)
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 32 << 20
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".txt", ".md", ".pdf", ".html", ".htm"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", "studyai." + event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
