package ledger

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Category identifies one of the three tracked emission sources.
type Category string

const (
	Transport Category = "Transport"
	Food      Category = "Food"
	Energy    Category = "Energy"
)

// Categories lists all valid categories in display order.
var Categories = []Category{Transport, Food, Energy}

// Valid reports whether c is one of the tracked categories.
func (c Category) Valid() bool {
	switch c {
	case Transport, Food, Energy:
		return true
	}
	return false
}

// Per-category cumulative thresholds in kg CO2. Crossing one turns the
// outcome of a record call from reward into alert.
var thresholds = map[Category]float64{
	Transport: 100,
	Food:      0.5,
	Energy:    70,
}

var rewardPoints = map[Category]int{
	Transport: 5,
	Food:      1,
	Energy:    5,
}

var suggestions = map[Category]string{
	Transport: "Consider using green transport options like cycling, walking, or public transportation",
	Food:      "Try to consume low-carbon footprint foods such as fruits, vegetables, and plant-based proteins",
	Energy:    "Try to use energy-efficient appliances,renewable energy sources and unplugging devices,turn off lights when not in use",
}

// Threshold returns the cumulative alert threshold for a category.
func Threshold(c Category) float64 { return thresholds[c] }

// Points returns the reward points granted for a category.
func Points(c Category) int { return rewardPoints[c] }

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("amount must be a finite number")
)

// FootprintEvent is an immutable record of one logged activity. Events are
// append-only; the ledger never mutates or deletes them.
type FootprintEvent struct {
	ID        string            `json:"id"`
	Category  Category          `json:"category"`
	AmountKg  float64           `json:"amount_kg"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// AlertRecord is emitted when a category's cumulative total crosses its
// threshold as a result of a record call.
type AlertRecord struct {
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RewardRecord is emitted on every record call that stays within the
// threshold.
type RewardRecord struct {
	Category  Category  `json:"category"`
	Points    int       `json:"points"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome carries the single alert-or-reward result of a record call.
// Exactly one of Alert and Reward is non-nil.
type Outcome struct {
	Alert  *AlertRecord  `json:"alert,omitempty"`
	Reward *RewardRecord `json:"reward,omitempty"`
}

// Title returns the notification title matching the outcome kind.
func (o Outcome) Title() string {
	if o.Alert != nil {
		return "Carbon Footprint Alert"
	}
	return "Rewards Notification"
}

// Message returns the human-readable outcome message.
func (o Outcome) Message() string {
	if o.Alert != nil {
		return o.Alert.Message
	}
	return o.Reward.Message
}

// Sink receives fire-and-forget outcome notifications. Publish must not
// block; delivery failures are never surfaced to the ledger.
type Sink interface {
	Publish(title, body string)
}

// defaultLogRetention bounds the alert and reward logs. The event log itself
// is append-only and unbounded; only the side-effect logs are evicted.
const defaultLogRetention = 1000

// Ledger owns one user's footprint state: the append-only event log, the
// cumulative per-category running totals and the alert/reward logs. All
// methods are safe for concurrent use; record calls are serialized so the
// read-modify-write on the running total is atomic with respect to
// alert/reward emission.
type Ledger struct {
	mu        sync.RWMutex
	totals    map[Category]float64
	events    []FootprintEvent
	alerts    []AlertRecord
	rewards   []RewardRecord
	retention int

	sink Sink
	now  func() time.Time
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithSink attaches a notification sink invoked after every record call.
func WithSink(s Sink) Option {
	return func(l *Ledger) { l.sink = s }
}

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRetention bounds the alert and reward logs to keep at most n entries
// each. Values <= 0 keep the default.
func WithRetention(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.retention = n
		}
	}
}

// New returns an empty ledger for a single user.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		totals:    make(map[Category]float64, len(Categories)),
		retention: defaultLogRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RecordActivity appends one activity to the ledger. The raw amount is
// rounded to 2 decimal places, added to the category's running total and
// exactly one of an alert (total crossed the threshold) or a reward is
// emitted. Negative finite amounts are accepted: estimators are trusted
// input and the original behavior is additive either way.
func (l *Ledger) RecordActivity(category Category, rawAmount float64, details map[string]string) (FootprintEvent, Outcome, error) {
	if !category.Valid() {
		return FootprintEvent{}, Outcome{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if math.IsNaN(rawAmount) || math.IsInf(rawAmount, 0) {
		return FootprintEvent{}, Outcome{}, ErrInvalidAmount
	}

	amount := round2(rawAmount)

	l.mu.Lock()
	ts := l.now()
	newTotal := l.totals[category] + amount

	var outcome Outcome
	if newTotal > thresholds[category] {
		alert := AlertRecord{
			Category:  category,
			Message:   fmt.Sprintf("%s footprint exceeded! %s.", category, suggestions[category]),
			CreatedAt: ts,
		}
		l.alerts = appendBounded(l.alerts, alert, l.retention)
		outcome.Alert = &alert
	} else {
		points := rewardPoints[category]
		reward := RewardRecord{
			Category:  category,
			Points:    points,
			Message:   fmt.Sprintf("Congratulations! You've earned %d points.", points),
			CreatedAt: ts,
		}
		l.rewards = appendBounded(l.rewards, reward, l.retention)
		outcome.Reward = &reward
	}

	l.totals[category] = newTotal

	event := FootprintEvent{
		ID:        uuid.NewString(),
		Category:  category,
		AmountKg:  amount,
		Timestamp: ts,
		Details:   cloneDetails(details),
	}
	l.events = append(l.events, event)
	l.mu.Unlock()

	if l.sink != nil {
		l.sink.Publish(outcome.Title(), outcome.Message())
	}

	return event, outcome, nil
}

// appendBounded appends keeping at most max entries, evicting the oldest.
func appendBounded[T any](log []T, rec T, max int) []T {
	if len(log) >= max {
		return append(log[1:], rec)
	}
	return append(log, rec)
}

func cloneDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

// Total returns the cumulative all-time total for a category.
func (l *Ledger) Total(category Category) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals[category]
}

// Totals returns all cumulative category totals.
func (l *Ledger) Totals() map[Category]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		out[c] = l.totals[c]
	}
	return out
}

// History returns a copy of the event log in chronological order.
func (l *Ledger) History() []FootprintEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]FootprintEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Alerts returns a copy of the retained alert log, oldest first.
func (l *Ledger) Alerts() []AlertRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]AlertRecord, len(l.alerts))
	copy(out, l.alerts)
	return out
}

// Rewards returns a copy of the retained reward log, oldest first.
func (l *Ledger) Rewards() []RewardRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]RewardRecord, len(l.rewards))
	copy(out, l.rewards)
	return out
}
