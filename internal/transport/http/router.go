package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"school-competition-service/internal/app"
	"school-competition-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// NewRouter mounts the REST and websocket endpoints of the quiz service.
func NewRouter(service *app.QuizService, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	api := &API{service: service}
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/v1", func(r chi.Router) {
		// websocket upgrades must not run under a request timeout
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/competitions/{competitionID}/sessions", api.startCompetition)
		r.Get("/competitions/{competitionID}/leaderboard", api.competitionLeaderboard)
		r.Get("/schools/{schoolID}/leaderboard", api.schoolLeaderboard)
		r.Post("/practice/sessions", api.startPractice)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", api.getSession)
			r.Post("/answer", api.selectOption)
			r.Post("/reveal", api.reveal)
			r.Post("/advance", api.advance)
			r.Post("/submit", api.submit)
			r.Post("/cancel", api.cancel)
		})
	})
	r.Get("/ws/sessions/{sessionID}", ws.ServeWS)
	return r
}

// API serves the JSON endpoints.
type API struct {
	service *app.QuizService
}

type startBody struct {
	StudentID   string `json:"studentId" validate:"required"`
	StudentName string `json:"studentName"`
	SchoolID    string `json:"schoolId"`
}

type answerBody struct {
	Option string `json:"option" validate:"required"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (a *API) startCompetition(w http.ResponseWriter, r *http.Request) {
	var body startBody
	if !decode(w, r, &body) {
		return
	}
	session, err := a.service.StartCompetition(r.Context(), app.StartRequest{
		CompetitionID: chi.URLParam(r, "competitionID"),
		StudentID:     body.StudentID,
		StudentName:   body.StudentName,
		SchoolID:      body.SchoolID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session.View())
}

func (a *API) startPractice(w http.ResponseWriter, r *http.Request) {
	var req app.PracticeRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := a.service.StartPractice(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session.View())
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (a *API) selectOption(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(w, r)
	if !ok {
		return
	}
	var body answerBody
	if !decode(w, r, &body) {
		return
	}
	a.transition(w, session, func() error { return session.SelectOption(body.Option) })
}

func (a *API) reveal(w http.ResponseWriter, r *http.Request) {
	if session, ok := a.session(w, r); ok {
		a.transition(w, session, session.Reveal)
	}
}

func (a *API) advance(w http.ResponseWriter, r *http.Request) {
	if session, ok := a.session(w, r); ok {
		a.transition(w, session, session.Advance)
	}
}

func (a *API) cancel(w http.ResponseWriter, r *http.Request) {
	if session, ok := a.session(w, r); ok {
		a.transition(w, session, session.Cancel)
	}
}

func (a *API) submit(w http.ResponseWriter, r *http.Request) {
	outcome, err := a.service.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (a *API) competitionLeaderboard(w http.ResponseWriter, r *http.Request) {
	a.leaderboard(w, r, app.LeaderboardQuery{
		CompetitionID: chi.URLParam(r, "competitionID"),
		SchoolID:      r.URL.Query().Get("schoolId"),
	})
}

func (a *API) schoolLeaderboard(w http.ResponseWriter, r *http.Request) {
	a.leaderboard(w, r, app.LeaderboardQuery{SchoolID: chi.URLParam(r, "schoolID")})
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request, query app.LeaderboardQuery) {
	mode, err := domain.ParseLeaderboardMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err)
		return
	}
	query.Mode = mode
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be an integer"})
			return
		}
		query.Limit = limit
	}
	lb, err := a.service.Leaderboard(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (a *API) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	session, err := a.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return session, true
}

func (a *API) transition(w http.ResponseWriter, session *app.Session, apply func() error) {
	if err := apply(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return false
	}
	if err := domain.Validator().Struct(dst); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrCompetitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSelectionExhausted),
		errors.Is(err, domain.ErrMaxAttemptsReached),
		errors.Is(err, domain.ErrCompetitionInactive),
		errors.Is(err, domain.ErrInvalidCompetition),
		errors.Is(err, domain.ErrNoQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrUnknownLeaderboardMode),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
