package cli

import "school-competition-service/internal/domain"

// sampleQuestions backs the in-memory store when no database is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "m4-e1", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 1, Difficulty: "easy", Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "B"},
		{ID: "m4-e2", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 1, Difficulty: "easy", Text: "What is 10 - 3?", Options: []string{"7", "6", "8", "13"}, CorrectAnswer: "7"},
		{ID: "m4-e3", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 2, Difficulty: "سهل", Text: "What is 5 + 5?", Options: []string{"55", "10", "0", "25"}, CorrectAnswer: "B"},
		{ID: "m4-m1", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 2, Difficulty: "medium", Text: "What is 6 x 7?", Options: []string{"42", "36", "48", "49"}, CorrectAnswer: "A"},
		{ID: "m4-m2", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 3, Difficulty: "medium", Text: "What is 81 / 9?", Options: []string{"8", "9", "7", "11"}, CorrectAnswer: "9"},
		{ID: "m4-h1", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 3, Difficulty: "hard", Text: "What is 12 x 12?", Options: []string{"124", "144", "132", "154"}, CorrectAnswer: "144"},
		{ID: "m4-h2", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 0, Difficulty: "صعب", Text: "Which number is prime?", Options: []string{"21", "27", "29", "33"}, CorrectAnswer: "C"},
		{ID: "m4-t1", GradeID: "grade-4", SubjectID: "math", Term: 1, Week: 4, Difficulty: "high_achievers", Text: "What is the next number: 1, 1, 2, 3, 5, ?", Options: []string{"7", "8", "9", "10"}, CorrectAnswer: "8"},
	}
}

func sampleCompetitions() []domain.Competition {
	return []domain.Competition{
		{
			ID: "math-weekly", Name: "Grade 4 Math Weekly", GradeID: "grade-4", SubjectID: "math", Term: 1,
			StartWeek: 1, EndWeek: 4, EasyQuota: 2, MediumQuota: 1, HardQuota: 1, TalentedQuota: 1,
			TimerMode: domain.TimerTotal, DurationSeconds: 300, MaxAttempts: 3, IsActive: true,
		},
		{
			ID: "math-sprint", Name: "Grade 4 Math Sprint", GradeID: "grade-4", SubjectID: "math", Term: 1,
			EasyQuota: 1, MediumQuota: 1, HardQuota: 1,
			TimerMode: domain.TimerPerQuestion, DurationSeconds: 20, MaxAttempts: 1, IsActive: true,
		},
	}
}
