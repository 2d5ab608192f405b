package model

import "time"

// Notification types a user can switch on or off per house.
const (
	NotifTypeTaskDueSoon  = "task_due_soon"
	NotifTypeTaskOverdue  = "task_overdue"
	NotifTypeTaskAssigned = "task_assigned"
)

// NotificationTypes lists every type in display order.
var NotificationTypes = []string{NotifTypeTaskDueSoon, NotifTypeTaskOverdue, NotifTypeTaskAssigned}

// IsNotificationType reports whether s names a known notification type.
func IsNotificationType(s string) bool {
	for _, t := range NotificationTypes {
		if t == s {
			return true
		}
	}
	return false
}

type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	HouseID    string    `json:"house_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type NotificationPreference struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	HouseID          string    `json:"house_id"`
	NotificationType string    `json:"notification_type"`
	Enabled          bool      `json:"enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
