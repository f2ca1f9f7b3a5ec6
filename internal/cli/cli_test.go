package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"school-competition-service/internal/app"
	"school-competition-service/internal/config"
	"school-competition-service/internal/domain"
)

func TestSampleCompetitionsAreValid(t *testing.T) {
	for _, c := range sampleCompetitions() {
		if err := c.Validate(); err != nil {
			t.Fatalf("sample competition %s invalid: %v", c.ID, err)
		}
	}
}

func TestLoadCatalogRejectsInvalidCompetition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"questions":[],"competitions":[{"id":"c1","gradeId":"g","subjectId":"s","term":1,"timerMode":"total","durationSeconds":60,"maxAttempts":1}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := loadCatalog(path); err == nil {
		t.Fatalf("expected zero-quota competition to be rejected")
	}
}

func TestSeedSQLiteAndPrintLeaderboard(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "competition.db")

	data, err := loadCatalog("")
	if err != nil {
		t.Fatalf("load samples: %v", err)
	}
	if err := seed(ctx, cfg, data); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	service := newService(cfg, store)
	session, err := service.StartCompetition(ctx, app.StartRequest{CompetitionID: "math-weekly", StudentID: "s1", StudentName: "Huda", SchoolID: "sch"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if total := session.View().TotalQuestions; total != 5 {
		t.Fatalf("expected 5 questions, got %d", total)
	}
	if err := session.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	store.Close()

	var out bytes.Buffer
	query := app.LeaderboardQuery{CompetitionID: "math-weekly", Mode: domain.LeaderboardBest}
	if err := printLeaderboard(ctx, &out, cfg, query); err != nil {
		t.Fatalf("print leaderboard: %v", err)
	}
	if !strings.Contains(out.String(), "competition:math-weekly (best)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestWriteLeaderboard(t *testing.T) {
	lb := domain.Leaderboard{
		Scope: "school:sch",
		Mode:  domain.LeaderboardCumulative,
		Entries: []domain.LeaderboardEntry{
			{Rank: 1, StudentID: "s1", StudentName: "Huda", Score: 12, TimeSpent: 95, Attempts: 3, Medal: domain.MedalGold},
			{Rank: 2, StudentID: "s2", Score: 7, TimeSpent: domain.NoTimeSentinel, Attempts: 1, Medal: domain.MedalSilver},
		},
	}
	var out bytes.Buffer
	if err := writeLeaderboard(&out, lb); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus two rows, got %q", out.String())
	}
	if !strings.Contains(lines[2], "Huda") || !strings.Contains(lines[2], "95s") || !strings.Contains(lines[2], "gold") {
		t.Fatalf("unexpected first row %q", lines[2])
	}
	if !strings.Contains(lines[3], "s2") || !strings.Contains(lines[3], " - ") {
		t.Fatalf("untimed row should show a dash: %q", lines[3])
	}
}
