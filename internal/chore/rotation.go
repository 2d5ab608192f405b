package chore

import (
	"math/rand/v2"
	"slices"

	"github.com/dukerupert/calmchores/internal/model"
)

// RandSource picks an index in [0, n). Implementations must accept any n > 0.
type RandSource interface {
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

// Rotator selects the next assignee for a chore. The tie-break among
// equally-loaded members is random, so two calls over the same state may
// disagree; inject a deterministic RandSource to pin outcomes in tests.
type Rotator struct {
	rnd RandSource
}

// NewRotator returns a Rotator. A nil source uses math/rand/v2.
func NewRotator(src RandSource) *Rotator {
	if src == nil {
		src = defaultRand{}
	}
	return &Rotator{rnd: src}
}

// LoadBased picks uniformly among the members with the fewest open tasks
// assigned to them across the whole house.
func (r *Rotator) LoadBased(open []model.Task, members []string) (string, error) {
	members = dedupe(members)
	switch len(members) {
	case 0:
		return "", ErrNoEligibleAssignee
	case 1:
		return members[0], nil
	}

	load := make(map[string]int, len(members))
	for _, m := range members {
		load[m] = 0
	}
	for _, t := range open {
		if t.Completed || t.AssignedTo == nil {
			continue
		}
		if _, ok := load[*t.AssignedTo]; ok {
			load[*t.AssignedTo]++
		}
	}

	return r.pick(minimumSet(members, load)), nil
}

// LineageBased picks uniformly among the members with the fewest completions
// of the recurring chore repeatTaskID, never choosing justCompletedBy unless
// they are the house's only member.
func (r *Rotator) LineageBased(history []model.Task, members []string, repeatTaskID, justCompletedBy string) (string, error) {
	members = dedupe(members)
	switch len(members) {
	case 0:
		return "", ErrNoEligibleAssignee
	case 1:
		return members[0], nil
	}

	candidates := make([]string, 0, len(members))
	for _, m := range members {
		if m != justCompletedBy {
			candidates = append(candidates, m)
		}
	}
	counts := make(map[string]int, len(candidates))
	for _, m := range candidates {
		counts[m] = 0
	}
	for _, t := range history {
		if !t.Completed || !t.InLineage(repeatTaskID) || t.CompletedBy == nil {
			continue
		}
		if _, ok := counts[*t.CompletedBy]; ok {
			counts[*t.CompletedBy]++
		}
	}

	best := minimumSet(candidates, counts)
	if len(best) == 0 {
		return r.pick(candidates), nil
	}
	return r.pick(best), nil
}

func (r *Rotator) pick(ids []string) string {
	if len(ids) == 1 {
		return ids[0]
	}
	return ids[r.rnd.IntN(len(ids))]
}

// minimumSet returns the members whose count equals the minimum, in the
// order they appear in members.
func minimumSet(members []string, counts map[string]int) []string {
	lowest := -1
	for _, m := range members {
		if c := counts[m]; lowest < 0 || c < lowest {
			lowest = c
		}
	}
	var out []string
	for _, m := range members {
		if counts[m] == lowest {
			out = append(out, m)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
