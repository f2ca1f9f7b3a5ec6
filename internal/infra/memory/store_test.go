package memory

import (
	"context"
	"errors"
	"testing"

	"school-competition-service/internal/domain"
)

func TestStoreScopesQuestionsAndAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.AddQuestions(
		domain.Question{ID: "q1", GradeID: "g1", SubjectID: "math", Term: 1},
		domain.Question{ID: "q2", GradeID: "g1", SubjectID: "math", Term: 2},
		domain.Question{ID: "q3", GradeID: "g2", SubjectID: "math", Term: 1},
	)
	got, err := store.ListQuestions(ctx, domain.QuestionScope{GradeID: "g1", SubjectID: "math", Term: 1})
	if err != nil || len(got) != 1 || got[0].ID != "q1" {
		t.Fatalf("unexpected scoped questions %+v err=%v", got, err)
	}

	if _, err := store.GetCompetition(ctx, "c1"); !errors.Is(err, domain.ErrCompetitionNotFound) {
		t.Fatalf("expected ErrCompetitionNotFound, got %v", err)
	}
	store.PutCompetition(domain.Competition{ID: "c1", Name: "Term 1"})
	if c, err := store.GetCompetition(ctx, "c1"); err != nil || c.Name != "Term 1" {
		t.Fatalf("unexpected competition %+v err=%v", c, err)
	}

	comp := "c1"
	seen := []string{"q1"}
	_ = store.CreateAttempt(ctx, domain.Attempt{ID: "a1", StudentID: "s1", SchoolID: "sch", CompetitionID: &comp, QuestionsSeen: seen})
	_ = store.CreateAttempt(ctx, domain.Attempt{ID: "a2", StudentID: "s1", SchoolID: "sch"})
	_ = store.CreateAttempt(ctx, domain.Attempt{ID: "a3", StudentID: "s2", SchoolID: "other", CompetitionID: &comp})
	seen[0] = "mutated"

	byStudent, _ := store.ListAttemptsByStudent(ctx, "s1")
	if len(byStudent) != 2 || byStudent[0].QuestionsSeen[0] != "q1" {
		t.Fatalf("attempts must be stored by value: %+v", byStudent)
	}
	byComp, _ := store.ListAttemptsByCompetition(ctx, "c1")
	if len(byComp) != 2 || byComp[0].ID != "a1" || byComp[1].ID != "a3" {
		t.Fatalf("unexpected competition attempts %+v", byComp)
	}
	bySchool, _ := store.ListAttemptsBySchool(ctx, "sch")
	if len(bySchool) != 2 {
		t.Fatalf("unexpected school attempts %+v", bySchool)
	}
}
