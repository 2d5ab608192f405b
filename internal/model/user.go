package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	VacationMode bool      `json:"vacation_mode"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary projects the user into the form embedded in a house.
func (u User) Summary() UserSummary {
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return UserSummary{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  name,
		VacationMode: u.VacationMode,
	}
}
