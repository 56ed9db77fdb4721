package audit

import (
	"encoding/json"
	"log"
	"time"
)

// Event is one structured audit line.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	AccountID string    `json:"account_id"`
	Category  string    `json:"category,omitempty"`
	AmountKg  float64   `json:"amount_kg,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Logger writes audit events for ledger mutations and auth activity.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

// LogActivity records a successful footprint mutation.
func (a *Logger) LogActivity(accountID, category string, amountKg float64, outcome string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "RECORD_ACTIVITY",
		AccountID: accountID,
		Category:  category,
		AmountKg:  amountKg,
		Status:    "SUCCESS",
		Details:   map[string]string{"outcome": outcome},
	})
}

// LogAuth records an authentication event such as REGISTER or LOGIN.
func (a *Logger) LogAuth(accountID, operation, status string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		AccountID: accountID,
		Status:    status,
	})
}

// LogError records a failed operation with its cause.
func (a *Logger) LogError(accountID, operation string, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
