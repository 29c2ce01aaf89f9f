package dtos

import "time"

// InboxEntry is what the inbox keeps about a handled notification.
type InboxEntry struct {
	NotificationId string      `json:"notificationId,omitempty"`
	MessageType    MessageType `json:"messageType"`
	Status         string      `json:"status"`
	OrderId        int64       `json:"orderId,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	ReceivedAt     time.Time   `json:"receivedAt"`
}

type NotificationSummaryFilters struct {
	From time.Time
	To   time.Time
}

// NotificationSummary counts handled notifications per message type and status.
type NotificationSummary struct {
	Total  int64                       `json:"total"`
	ByType map[string]map[string]int64 `json:"byType"`
}

func NewNotificationSummary() *NotificationSummary {
	return &NotificationSummary{ByType: map[string]map[string]int64{}}
}

func (s *NotificationSummary) Add(e InboxEntry) {
	t := string(e.MessageType)
	if s.ByType[t] == nil {
		s.ByType[t] = map[string]int64{}
	}
	s.ByType[t][e.Status]++
	s.Total++
}
