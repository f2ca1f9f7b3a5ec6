// Package leaderboard ranks students from persisted attempts. Callers narrow
// the attempts to a competition, school or grade before aggregating.
package leaderboard

import (
	"sort"

	"school-competition-service/internal/domain"
)

type standing struct {
	studentID   string
	studentName string
	score       int
	timeSpent   int
	attempts    int
}

// Aggregate ranks attempts in the given mode and keeps the first limit entries.
// limit <= 0 keeps all. Entries with equal sort keys keep the order in which
// their student first appears in attempts.
func Aggregate(attempts []domain.Attempt, mode domain.LeaderboardMode, limit int) []domain.LeaderboardEntry {
	var standings []*standing
	if mode == domain.LeaderboardCumulative {
		standings = cumulative(attempts)
		sort.SliceStable(standings, func(i, j int) bool {
			return standings[i].score > standings[j].score
		})
	} else {
		standings = bestPerStudent(attempts)
		sort.SliceStable(standings, func(i, j int) bool {
			return better(standings[i].score, standings[i].timeSpent, standings[j].score, standings[j].timeSpent)
		})
	}

	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(standings))
	for i, s := range standings {
		rank := i + 1
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        rank,
			StudentID:   s.studentID,
			StudentName: s.studentName,
			Score:       s.score,
			TimeSpent:   s.timeSpent,
			Attempts:    s.attempts,
			Medal:       domain.MedalForRank(rank),
		})
	}
	return entries
}

// better orders by score descending, then time ascending.
func better(scoreA, timeA, scoreB, timeB int) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return timeA < timeB
}

func bestPerStudent(attempts []domain.Attempt) []*standing {
	byStudent := make(map[string]*standing)
	var order []*standing
	for _, a := range attempts {
		spent := a.TimeSpent()
		s, ok := byStudent[a.StudentID]
		if !ok {
			s = &standing{studentID: a.StudentID, studentName: a.StudentName, score: a.Score, timeSpent: spent}
			byStudent[a.StudentID] = s
			order = append(order, s)
		} else if better(a.Score, spent, s.score, s.timeSpent) {
			s.score, s.timeSpent = a.Score, spent
		}
		s.attempts++
		if s.studentName == "" {
			s.studentName = a.StudentName
		}
	}
	return order
}

func cumulative(attempts []domain.Attempt) []*standing {
	byStudent := make(map[string]*standing)
	var order []*standing
	for _, a := range attempts {
		s, ok := byStudent[a.StudentID]
		if !ok {
			s = &standing{studentID: a.StudentID, studentName: a.StudentName}
			byStudent[a.StudentID] = s
			order = append(order, s)
		}
		s.score += a.Score
		s.timeSpent += cumulativeTime(a)
		s.attempts++
		if s.studentName == "" {
			s.studentName = a.StudentName
		}
	}
	return order
}

// cumulativeTime treats a missing duration as zero so one untimed attempt
// does not swamp the total with the sentinel.
func cumulativeTime(a domain.Attempt) int {
	if t := a.TimeSpent(); t != domain.NoTimeSentinel {
		return t
	}
	return 0
}
