package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook/internal/platform/whatsapp"
)

// LogEntry is one delivery attempt, as stored in whatsapp_message_log.
type LogEntry struct {
	ID         uuid.UUID               `json:"id" db:"id"`
	HospitalID uuid.UUID               `json:"hospital_id" db:"hospital_id"`
	Recipient  string                  `json:"recipient" db:"recipient"`
	Kind       whatsapp.MessageKind    `json:"message_type" db:"message_type"`
	Body       string                  `json:"body" db:"body"`
	Status     whatsapp.DeliveryStatus `json:"status" db:"status"`
	Error      *string                 `json:"error,omitempty" db:"error"`
	RetryCount int                     `json:"retry_count" db:"retry_count"`
	SentAt     time.Time               `json:"sent_at" db:"sent_at"`
}

// Statistics summarises delivery outcomes for a set of log entries.
type Statistics struct {
	Total       int     `json:"total"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Summarise computes delivery statistics with the success rate as a
// percentage rounded to two decimals.
func Summarise(logs []*LogEntry) Statistics {
	st := Statistics{Total: len(logs)}
	for _, l := range logs {
		if l.Status == whatsapp.DeliverySuccess {
			st.Successful++
		} else {
			st.Failed++
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(int(float64(st.Successful)/float64(st.Total)*100*100+0.5)) / 100
	}
	return st
}
