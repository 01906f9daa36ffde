package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
)

// Notification is a short-lived message shown in the status line.
type Notification struct {
	ID        string
	Message   string
	Type      string // info, success, warning, error
	StartTime time.Time
	Duration  time.Duration
}

const maxNotifications = 3

// Notify implements clipboard.Notifier.
func (m *Model) Notify(kind, message string) {
	m.ShowNotification(message, kind, config.NotificationDuration)
}

// ShowNotification displays a notification for duration.
func (m *Model) ShowNotification(message, notifType string, duration time.Duration) {
	notif := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      notifType,
		StartTime: m.now(),
		Duration:  duration,
	}
	m.Notifications = append(m.Notifications, notif)
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
	m.queue(NotificationExpiryCmd(duration))

	// Also log the notification
	switch notifType {
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	default:
		m.logger.Info(message)
	}
}

// CleanupNotifications removes expired notifications.
func (m *Model) CleanupNotifications() {
	now := m.now()
	var active []Notification

	for _, notif := range m.Notifications {
		if now.Sub(notif.StartTime) < notif.Duration {
			active = append(active, notif)
		}
	}

	m.Notifications = active
}
