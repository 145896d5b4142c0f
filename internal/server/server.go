// Package server exposes the HTTP API and the public site host.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"windexai/internal/app"
	"windexai/internal/ratelimit"
	"windexai/internal/util"
	"windexai/pkg/domain"
)

const maxJSONBody = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App         *app.App
	AuthLimiter *ratelimit.FixedWindowLimiter
	ChatLimiter *ratelimit.FixedWindowLimiter
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app         *app.App
	mux         *http.ServeMux
	authLimiter *ratelimit.FixedWindowLimiter
	chatLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:         cfg.App,
		mux:         http.NewServeMux(),
		authLimiter: cfg.AuthLimiter,
		chatLimiter: cfg.ChatLimiter,
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.authenticated(s.handleMe))

	// profile
	s.mux.Handle("/api/profile/me", s.authenticated(s.handleProfile))
	s.mux.Handle("/api/profile/stats", s.authenticated(s.handleProfileStats))
	s.mux.Handle("/api/profile/recent-activity", s.authenticated(s.handleRecentActivity))
	s.mux.Handle("/api/profile/update", s.authenticated(s.handleProfileUpdate))
	s.mux.Handle("/api/profile/change-password", s.authenticated(s.handleChangePassword))
	s.mux.Handle("/api/profile/account", s.authenticated(s.handleDeleteAccount))
	s.mux.Handle("/api/profile/subscription", s.authenticated(s.handleSubscription))

	// chat
	s.mux.Handle("/api/chat", s.authenticated(s.handleChat))
	s.mux.Handle("/api/conversations", s.authenticated(s.handleConversations))
	s.mux.Handle("/api/conversations/", s.authenticated(s.handleConversationByID))

	// website generation
	s.mux.Handle("/api/ai-editor/generate", s.authenticated(s.handleGenerate))
	s.mux.Handle("/api/ai-editor/generations", s.authenticated(s.handleGenerations))

	// documents
	s.mux.Handle("/api/documents", s.authenticated(s.handleDocuments))
	s.mux.Handle("/api/documents/", s.authenticated(s.handleDocumentByID))

	// voice
	s.mux.Handle("/api/voice", s.authenticated(s.handleVoice))

	// deployments
	s.mux.Handle("/api/deploy", s.authenticated(s.handleDeployments))
	s.mux.Handle("/api/deploy/", s.authenticated(s.handleDeploymentByID))
	s.mux.Handle("/api/dashboard", s.authenticated(s.handleDashboard))

	// public site hosting
	s.mux.HandleFunc("/sites/", s.handleSite)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.audit(r, "api.authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(r.Context(), token)
		if !ok {
			s.audit(r, "api.authorize", "fail", "reason", "invalid_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.authLimiter, "too many registration attempts") {
		s.audit(r, "auth.register", "rate_limited")
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Register(req.Username, req.Email, req.Password)
	if err != nil {
		s.audit(r, "auth.register", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "auth.register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.authLimiter, "too many login attempts") {
		s.audit(r, "auth.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		s.audit(r, "auth.login", "fail", "reason", "invalid_credentials")
		writeAppError(w, err)
		return
	}
	s.audit(r, "auth.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r, "auth.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// profile handlers
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	info, err := s.app.Profile(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.ProfileStats(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	report, err := s.app.RecentActivity(user, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" && strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "username or email required")
		return
	}
	updated, err := s.app.UpdateProfile(user, req.Username, req.Email)
	if err != nil {
		s.audit(r, "profile.update", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "profile.update", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.authLimiter, "too many attempts") {
		s.audit(r, "profile.change_password", "rate_limited")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.ChangePassword(user, req.CurrentPassword, req.NewPassword); err != nil {
		s.audit(r, "profile.change_password", "fail", "user_id", user.ID)
		writeAppError(w, err)
		return
	}
	s.audit(r, "profile.change_password", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteAccount(r.Context(), user); err != nil {
		writeAppError(w, err)
		return
	}
	if token, ok := bearerToken(r); ok {
		_ = s.app.Logout(r.Context(), token)
	}
	s.audit(r, "profile.delete_account", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Subscription(user))
}

// chat handlers
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.chatLimiter, "too many requests") {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	res, err := s.app.Chat(r.Context(), user, req.ConversationID, req.Message, req.Model)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	convType := domain.ConversationType(r.URL.Query().Get("type"))
	convs, err := s.app.ListConversations(user, convType, 100)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": convs, "count": len(convs)})
}

func (s *Server) handleConversationByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/api/conversations/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case sub == "messages":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		msgs, err := s.app.ConversationMessages(user, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": msgs, "count": len(msgs)})
	case sub == "":
		switch r.Method {
		case http.MethodPatch:
			var req renameRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			if strings.TrimSpace(req.Title) == "" {
				writeError(w, http.StatusBadRequest, "title is required")
				return
			}
			if err := s.app.RenameConversation(user, id, req.Title); err != nil {
				writeAppError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			if err := s.app.DeleteConversation(user, id); err != nil {
				writeAppError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}

// website generation handlers
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.chatLimiter, "too many requests") {
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	gen, err := s.app.GenerateSite(r.Context(), user, req.ConversationID, req.Message, req.Mode)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		ID:             gen.ID,
		ConversationID: gen.ConversationID,
		Mode:           gen.Mode,
		Plan:           gen.Plan,
		HTML:           gen.HTML,
	})
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}
	gens, err := s.app.Generations(user, conversationID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": gens, "count": len(gens)})
}

// document handlers
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		docs, err := s.app.ListDocuments(user)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": docs, "count": len(docs)})
	case http.MethodPost:
		file, header, err := formFile(r, "file", 12<<20)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer file.Close()
		doc, err := s.app.UploadDocument(r.Context(), user, header.Filename, header.Size, file)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/api/documents/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case sub == "ask":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req askRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}
		answer, err := s.app.AskDocument(r.Context(), user, id, req.Question, req.Model)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": answer})
	case sub == "download":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		url, err := s.app.DocumentDownloadURL(r.Context(), user, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	case sub == "":
		switch r.Method {
		case http.MethodGet:
			doc, err := s.app.GetDocument(user, id)
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, doc)
		case http.MethodDelete:
			if err := s.app.DeleteDocument(r.Context(), user, id); err != nil {
				writeAppError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}

// voice handler
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.chatLimiter, "too many requests") {
		return
	}
	file, header, err := formFile(r, "audio", 26<<20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()
	res, err := s.app.VoiceMessage(r.Context(), user, r.FormValue("conversationId"), header.Filename, file)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// deployment handlers
func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		deps, err := s.app.ListDeployments(user)
		if err != nil {
			writeAppError(w, err)
			return
		}
		items := make([]deployResponse, 0, len(deps))
		for _, dep := range deps {
			items = append(items, s.deployResponse(dep))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var req deployRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.HTML) == "" {
			writeError(w, http.StatusBadRequest, "htmlContent is required")
			return
		}
		dep, err := s.app.CreateDeployment(user, req.Title, req.Description, req.HTML, req.CSS, req.JS)
		if err != nil {
			writeAppError(w, err)
			return
		}
		s.audit(r, "deploy.create", "success", "user_id", user.ID, "slug", dep.Slug)
		writeJSON(w, http.StatusCreated, s.deployResponse(dep))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDeploymentByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/api/deploy/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case sub == "analytics":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		stats, err := s.app.DeploymentAnalytics(user, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case sub == "":
		switch r.Method {
		case http.MethodGet:
			dep, err := s.app.GetDeployment(user, id)
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, s.deployResponse(dep))
		case http.MethodPut:
			var req deployRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			dep, err := s.app.UpdateDeployment(user, domain.Deployment{
				ID:          id,
				Title:       req.Title,
				Description: req.Description,
				HTML:        req.HTML,
				CSS:         req.CSS,
				JS:          req.JS,
				IsActive:    req.IsActive,
			})
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, s.deployResponse(dep))
		case http.MethodDelete:
			if err := s.app.DeleteDeployment(user, id); err != nil {
				writeAppError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	summary, err := s.app.Dashboard(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleSite serves deployed sites to the public without authentication.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	slug := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/sites/"), "/")
	if slug == "" || strings.Contains(slug, "/") {
		http.NotFound(w, r)
		return
	}
	page, err := s.app.ServeSite(slug)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

func (s *Server) deployResponse(dep domain.Deployment) deployResponse {
	return deployResponse{Deployment: dep, URL: s.app.PublicURL(dep)}
}

// request/response bodies
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	Model          string `json:"model"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type generateRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	Mode           string `json:"mode"`
}

type generateResponse struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Mode           string      `json:"mode"`
	Plan           domain.Plan `json:"plan"`
	HTML           string      `json:"html"`
}

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

type deployRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	HTML        string `json:"htmlContent"`
	CSS         string `json:"cssContent"`
	JS          string `json:"jsContent"`
	IsActive    bool   `json:"isActive"`
}

type deployResponse struct {
	domain.Deployment
	URL string `json:"url"`
}

// helpers
func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r),
		"request_id", util.RequestIDFromRequest(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

// allowRate enforces a limiter when one is configured. A nil limiter means
// rate limiting is disabled.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
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

// splitResourcePath returns the resource id and an optional single trailing
// segment from a path under prefix.
func splitResourcePath(path, prefix string) (id, sub string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 3)
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	default:
		return "", "", false
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
}

func formFile(r *http.Request, field string, maxBytes int64) (io.ReadCloser, *formFileHeader, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, errors.New("invalid multipart body")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errors.New(field + " file is required")
	}
	return file, &formFileHeader{Filename: header.Filename, Size: header.Size}, nil
}

type formFileHeader struct {
	Filename string
	Size     int64
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrDocumentNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrEmailTaken),
		errors.Is(err, app.ErrFieldsRequired),
		errors.Is(err, app.ErrWrongPassword),
		errors.Is(err, app.ErrWeakPassword),
		errors.Is(err, app.ErrUnsupportedFile),
		errors.Is(err, app.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
