package model

import "time"

// DefaultAreas are seeded into every new house.
var DefaultAreas = []string{"Common Area", "Kitchen", "Living Area"}

type House struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	OwnerID   string        `json:"owner_id"`
	JoinCode  string        `json:"join_code"`
	Areas     []string      `json:"areas"`
	Members   []UserSummary `json:"members"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// UserSummary is the per-house projection of a user record.
type UserSummary struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	VacationMode bool   `json:"vacation_mode"`
}

// MemberIDs returns the ids of every member in projection order.
func (h *House) MemberIDs() []string {
	ids := make([]string, 0, len(h.Members))
	for _, m := range h.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// AvailableMemberIDs returns members who are not in vacation mode.
func (h *House) AvailableMemberIDs() []string {
	var ids []string
	for _, m := range h.Members {
		if !m.VacationMode {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// HasMember reports whether userID belongs to the house.
func (h *House) HasMember(userID string) bool {
	for _, m := range h.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// HasArea reports whether area is one of the house's areas.
func (h *House) HasArea(area string) bool {
	for _, a := range h.Areas {
		if a == area {
			return true
		}
	}
	return false
}
