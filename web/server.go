package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"archive-analyzer/services"
	"archive-analyzer/storage"
	"archive-analyzer/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Runner executes one analysis; *services.Analyzer satisfies it.
type Runner interface {
	Run(ctx context.Context, req services.Request) (*services.Report, error)
}

// Server is the password-gated web interface.
type Server struct {
	password  string
	runner    Runner
	templates *template.Template
	sessions  *sessionStore
	logger    *utils.Logger
	now       func() time.Time

	// runMu keeps analyses one at a time.
	runMu sync.Mutex
}

// formData echoes the analysis form back into the page.
type formData struct {
	Handle   string
	From     string
	To       string
	Limit    string
	Keywords string
}

type pageData struct {
	Error     string
	Form      formData
	Dashboard *dashboard
}

// NewServer parses the embedded templates. password must not be empty.
func NewServer(password string, runner Runner, logger *utils.Logger) (*Server, error) {
	if password == "" {
		return nil, errors.New("web: a password is required")
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return &Server{
		password:  password,
		runner:    runner,
		templates: tmpl,
		sessions:  newSessionStore(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /{$}", s.requireSession(s.handleIndex))
	mux.HandleFunc("POST /analyze", s.requireSession(s.handleAnalyze))
	mux.HandleFunc("GET /export/{table}/{format}", s.requireSession(s.handleExport))

	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[web] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("[web] Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sessionID string)

func (s *Server) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessions.lookup(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, id)
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", pageData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := checkPassword(s.password, r.PostFormValue("password")); err != nil {
		s.logger.Warn("[web] Rejected login from %s", r.RemoteAddr)
		s.render(w, http.StatusUnauthorized, "login.html", pageData{Error: "Password incorrect"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.sessions.create(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, id string) {
	data := pageData{}
	if rep := s.sessions.report(id); rep != nil {
		d, err := newDashboard(rep)
		if err != nil {
			s.fail(w, err)
			return
		}
		data.Dashboard = d
		data.Form.Handle = rep.Handle
	}
	s.render(w, http.StatusOK, "index.html", data)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, id string) {
	form := formData{
		Handle:   r.PostFormValue("handle"),
		From:     r.PostFormValue("from"),
		To:       r.PostFormValue("to"),
		Limit:    r.PostFormValue("limit"),
		Keywords: r.PostFormValue("keywords"),
	}
	req, err := services.NewRequest(form.Handle, form.From, form.To, form.Limit, form.Keywords)
	if err != nil {
		s.render(w, http.StatusBadRequest, "index.html", pageData{Error: err.Error(), Form: form})
		return
	}

	s.runMu.Lock()
	rep, err := s.runner.Run(r.Context(), req)
	s.runMu.Unlock()
	if err != nil {
		s.render(w, http.StatusBadRequest, "index.html", pageData{Error: err.Error(), Form: form})
		return
	}
	s.sessions.setReport(id, rep)

	d, err := newDashboard(rep)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.render(w, http.StatusOK, "index.html", pageData{Form: form, Dashboard: d})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	format, err := storage.ParseFormat(r.PathValue("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	rep := s.sessions.report(id)
	if rep == nil {
		http.Error(w, "No analysis to export yet", http.StatusNotFound)
		return
	}

	table := rep.Table
	switch r.PathValue("table") {
	case "full":
	case "filtered":
		table = rep.Filter.Table
	default:
		http.Error(w, "Unknown table (want filtered or full)", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, storage.FileName(rep.Handle, format, s.now())))
	if err := storage.Export(w, table, format); err != nil {
		s.logger.Error("[web] Export %s failed: %v", format, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("[web] Error rendering %s: %v", name, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("[web] %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
