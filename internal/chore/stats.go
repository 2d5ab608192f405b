package chore

import (
	"sort"

	"github.com/dukerupert/calmchores/internal/model"
)

// Stats summarizes one user's track record over a task history.
type Stats struct {
	UserID    string  `json:"user_id"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	OnTime    int     `json:"on_time"`
	Overdue   int     `json:"overdue"`
	Missed    int     `json:"missed"`
	Score     float64 `json:"score"`
	Band      Band    `json:"band"`
}

// ComputeStats folds history into a user's statistics. It keeps no state
// between calls, so the same history always yields the same Stats.
//
// OnTime counts every completion by the user that was not flagged overdue;
// tasks without a due date are always on time.
func ComputeStats(userID string, history []model.Task) Stats {
	s := Stats{UserID: userID}
	for _, t := range history {
		if !t.Completed {
			continue
		}
		assigned := t.IsAssignedTo(userID)
		completedBy := t.IsCompletedBy(userID)
		late := t.OverdueCompletion != nil && *t.OverdueCompletion

		if assigned {
			s.Total++
		}
		if completedBy {
			s.Completed++
			if !late {
				s.OnTime++
			}
		}
		if assigned && completedBy && late {
			s.Overdue++
		}
		if assigned && !completedBy {
			s.Missed++
		}
	}
	s.Score = Score(s.Total, s.Completed, s.Overdue)
	s.Band = BandFor(s.Score)
	return s
}

// Score is completed/total*100 minus half the overdue count, floored at
// zero. It has no upper bound: helping with others' chores pushes it past
// 100, which the gauge shows as its top band.
func Score(total, completed, overdue int) float64 {
	if total <= 0 {
		return 0
	}
	v := float64(completed)/float64(total)*100 - float64(overdue)/2
	if v < 0 {
		return 0
	}
	return v
}

// ScopeToLineage keeps only the instances of one recurring chore.
func ScopeToLineage(history []model.Task, repeatTaskID string) []model.Task {
	var out []model.Task
	for _, t := range history {
		if t.InLineage(repeatTaskID) {
			out = append(out, t)
		}
	}
	return out
}

// LineageCompletions counts completions of one recurring chore per member.
// Every member appears in the result, including those with zero.
func LineageCompletions(history []model.Task, members []string, repeatTaskID string) map[string]int {
	counts := make(map[string]int, len(members))
	for _, m := range members {
		counts[m] = 0
	}
	for _, t := range history {
		if t.Completed && t.InLineage(repeatTaskID) && t.CompletedBy != nil {
			counts[*t.CompletedBy]++
		}
	}
	return counts
}

// HouseStats computes Stats for every member, best score first.
func HouseStats(history []model.Task, members []string) []Stats {
	out := make([]Stats, 0, len(members))
	for _, m := range members {
		out = append(out, ComputeStats(m, history))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
