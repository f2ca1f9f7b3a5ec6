package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"school-competition-service/internal/app"
	"school-competition-service/internal/domain"
	"school-competition-service/internal/infra/memory"
)

func newTestService(t *testing.T) (*app.QuizService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddQuestions(sampleQuestions()...)
	store.PutCompetition(domain.Competition{
		ID: "comp-1", Name: "Weekly", GradeID: "g4", SubjectID: "math", Term: 1,
		EasyQuota: 1, MediumQuota: 1, TimerMode: domain.TimerTotal, DurationSeconds: 300, MaxAttempts: 2, IsActive: true,
	})
	store.PutCompetition(domain.Competition{
		ID: "comp-off", GradeID: "g4", SubjectID: "math", Term: 1,
		EasyQuota: 1, TimerMode: domain.TimerTotal, DurationSeconds: 60, MaxAttempts: 1,
	})
	service := app.NewQuizService(memory.NewSessionStore(), store, store, store)
	return service, store
}

func TestForcedSubmissionOverREST(t *testing.T) {
	store := memory.NewStore()
	store.AddQuestions(sampleQuestions()...)
	store.PutCompetition(domain.Competition{
		ID: "comp-1", GradeID: "g4", SubjectID: "math", Term: 1,
		EasyQuota: 1, MediumQuota: 1, TimerMode: domain.TimerTotal, DurationSeconds: 300, MaxAttempts: 1, IsActive: true,
	})
	clock := app.NewManualClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	service := app.NewQuizService(memory.NewSessionStore(), store, store, store, app.WithClock(clock))
	srv := httptest.NewServer(NewRouter(service, nil))
	defer srv.Close()

	var view app.SessionView
	if code := doJSON(t, srv, http.MethodPost, "/v1/competitions/comp-1/sessions", map[string]string{"studentId": "s1"}, &view); code != http.StatusCreated {
		t.Fatalf("start status %d", code)
	}
	clock.Advance(301 * time.Second)

	var expired app.SessionView
	if code := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+view.ID, nil, &expired); code != http.StatusOK {
		t.Fatalf("expired session: expected 200, got %d", code)
	}
	if expired.State != app.StateCompleted || expired.Outcome == nil || !expired.Outcome.Forced {
		t.Fatalf("expected forced outcome in view, got %+v", expired)
	}

	var outcome app.Outcome
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+view.ID+"/submit", nil, &outcome); code != http.StatusOK {
		t.Fatalf("late submit: expected 200, got %d", code)
	}
	if !outcome.Forced || !outcome.Persisted || outcome.Result.Achieved != 0 {
		t.Fatalf("late submit should return the forced outcome, got %+v", outcome)
	}

	var errBody errorBody
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+view.ID+"/reveal", nil, &errBody); code != http.StatusConflict {
		t.Fatalf("reveal after forced submit: expected 409, got %d", code)
	}

	clock.Advance(10 * time.Minute)
	if code := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+view.ID, nil, &errBody); code != http.StatusNotFound {
		t.Fatalf("evicted session: expected 404, got %d", code)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", GradeID: "g4", SubjectID: "math", Term: 1, Difficulty: "easy", Text: "2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "B"},
		{ID: "q2", GradeID: "g4", SubjectID: "math", Term: 1, Difficulty: "medium", Text: "3 * 3?", Options: []string{"9", "6"}, CorrectAnswer: "9"},
	}
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

// answerCurrent picks the correct option of the current question and moves on.
func answerCurrent(t *testing.T, srv *httptest.Server, id string, view app.SessionView) app.SessionView {
	t.Helper()
	option := map[string]string{"q1": "4", "q2": "9"}[view.Question.ID]
	var selected, revealed app.SessionView
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer", map[string]string{"option": option}, &selected); code != http.StatusOK {
		t.Fatalf("answer status %d", code)
	}
	if selected.SelectedOption != option || selected.Correct != nil {
		t.Fatalf("selection must not reveal correctness: %+v", selected)
	}
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/reveal", nil, &revealed); code != http.StatusOK {
		t.Fatalf("reveal status %d", code)
	}
	if revealed.Correct == nil || !*revealed.Correct || revealed.Question.CorrectOption != option {
		t.Fatalf("unexpected revealed view %+v", revealed)
	}
	return revealed
}

func TestCompetitionFlowOverREST(t *testing.T) {
	service, store := newTestService(t)
	srv := httptest.NewServer(NewRouter(service, nil))
	defer srv.Close()

	var view app.SessionView
	code := doJSON(t, srv, http.MethodPost, "/v1/competitions/comp-1/sessions",
		map[string]string{"studentId": "s1", "studentName": "Nour", "schoolId": "sch-1"}, &view)
	if code != http.StatusCreated {
		t.Fatalf("start status %d", code)
	}
	if view.TotalQuestions != 2 || view.Question == nil || view.RemainingSeconds == nil {
		t.Fatalf("unexpected start view %+v", view)
	}
	id := view.ID

	var errBody errorBody
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/advance", nil, &errBody); code != http.StatusConflict {
		t.Fatalf("advance before reveal: expected 409, got %d", code)
	}
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer", map[string]string{"option": "nope"}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("unknown option: expected 400, got %d", code)
	}

	answerCurrent(t, srv, id, view)
	var next app.SessionView
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/advance", nil, &next); code != http.StatusOK {
		t.Fatalf("advance status %d", code)
	}
	if next.CurrentIndex != 1 || next.Question.CorrectOption != "" {
		t.Fatalf("unexpected view after advance %+v", next)
	}
	answerCurrent(t, srv, id, next)

	var outcome app.Outcome
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/submit", nil, &outcome); code != http.StatusOK {
		t.Fatalf("submit status %d", code)
	}
	// easy weighs 1, medium 2
	if outcome.Result.Achieved != 3 || outcome.Result.Max != 3 || !outcome.Persisted {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	var finished app.SessionView
	if code := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id, nil, &finished); code != http.StatusOK {
		t.Fatalf("finished session: expected 200, got %d", code)
	}
	if finished.State != app.StateCompleted || finished.Outcome == nil || finished.Outcome.Result.Achieved != 3 {
		t.Fatalf("finished session should carry its outcome, got %+v", finished)
	}

	attempts, _ := store.ListAttemptsByCompetition(context.Background(), "comp-1")
	if len(attempts) != 1 || attempts[0].StudentName != "Nour" {
		t.Fatalf("unexpected attempts %+v", attempts)
	}

	var lb domain.Leaderboard
	if code := doJSON(t, srv, http.MethodGet, "/v1/competitions/comp-1/leaderboard?mode=best&limit=5", nil, &lb); code != http.StatusOK {
		t.Fatalf("leaderboard status %d", code)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Score != 3 || lb.Entries[0].Medal != domain.MedalGold {
		t.Fatalf("unexpected leaderboard %+v", lb)
	}
	if code := doJSON(t, srv, http.MethodGet, "/v1/schools/sch-1/leaderboard?mode=cumulative", nil, &lb); code != http.StatusOK {
		t.Fatalf("school leaderboard status %d", code)
	}
	if lb.Mode != domain.LeaderboardCumulative || len(lb.Entries) != 1 {
		t.Fatalf("unexpected school leaderboard %+v", lb)
	}
}

func TestRESTErrorMapping(t *testing.T) {
	service, _ := newTestService(t)
	srv := httptest.NewServer(NewRouter(service, nil))
	defer srv.Close()

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing student", http.MethodPost, "/v1/competitions/comp-1/sessions", map[string]string{}, http.StatusBadRequest},
		{"unknown competition", http.MethodPost, "/v1/competitions/nope/sessions", map[string]string{"studentId": "s1"}, http.StatusNotFound},
		{"inactive competition", http.MethodPost, "/v1/competitions/comp-off/sessions", map[string]string{"studentId": "s1"}, http.StatusUnprocessableEntity},
		{"unknown session", http.MethodPost, "/v1/sessions/missing/reveal", nil, http.StatusNotFound},
		{"empty practice", http.MethodPost, "/v1/practice/sessions", map[string]any{"studentId": "s1", "questions": []any{}}, http.StatusBadRequest},
		{"bad mode", http.MethodGet, "/v1/competitions/comp-1/leaderboard?mode=fastest", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/v1/competitions/comp-1/leaderboard?limit=ten", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		var errBody errorBody
		if code := doJSON(t, srv, tc.method, tc.path, tc.body, &errBody); code != tc.want {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.want, code, errBody.Error)
		}
		if errBody.Error == "" {
			t.Fatalf("%s: expected an error message", tc.name)
		}
	}
}

func TestPracticeSessionOverREST(t *testing.T) {
	service, _ := newTestService(t)
	srv := httptest.NewServer(NewRouter(service, nil))
	defer srv.Close()

	var view app.SessionView
	body := map[string]any{"studentId": "s9", "questions": sampleQuestions()[:1]}
	if code := doJSON(t, srv, http.MethodPost, "/v1/practice/sessions", body, &view); code != http.StatusCreated {
		t.Fatalf("practice status %d", code)
	}
	if view.RemainingSeconds != nil || view.CompetitionID != "" {
		t.Fatalf("practice sessions are untimed: %+v", view)
	}
	view = answerCurrent(t, srv, view.ID, view)

	var outcome app.Outcome
	if code := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+view.ID+"/submit", nil, &outcome); code != http.StatusOK {
		t.Fatalf("submit status %d", code)
	}
	if outcome.Attempt.IsCompetition() || outcome.Result.Achieved != 1 {
		t.Fatalf("unexpected practice outcome %+v", outcome)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrNotRevealed:         http.StatusConflict,
		domain.ErrSessionClosed:       http.StatusConflict,
		domain.ErrMaxAttemptsReached:  http.StatusUnprocessableEntity,
		domain.ErrSelectionExhausted:  http.StatusUnprocessableEntity,
		domain.ErrCompetitionNotFound: http.StatusNotFound,
		domain.ErrOptionNotFound:      http.StatusBadRequest,
		errUnsupportedMessage:          http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
