// Package reporting aggregates per-request payment records into a
// retrospective report: volumes, success/failure counts, amounts by
// currency, provider usage, and an error-code breakdown.
package reporting

import (
	"sync"
	"time"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

// Outcome classifies a recorded attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Record is a single payment, refund, or webhook attempt.
type Record struct {
	Timestamp time.Time
	Operation string // e.g. "create_payment", "refund", "webhook"
	Provider  provider.Provider
	Outcome   Outcome
	Amount    int64
	Currency  string
	ErrorCode string
}

// Report summarizes a window of records.
type Report struct {
	TotalRequests      int                       `json:"totalRequests"`
	Succeeded          int                       `json:"succeeded"`
	Failed             int                       `json:"failed"`
	AmountByCurrency   map[string]int64          `json:"amountByCurrency"`
	ErrorBreakdown     map[string]int            `json:"errorBreakdown"`
	ProviderUsage      map[provider.Provider]int `json:"providerUsage"`
	OperationBreakdown map[string]int            `json:"operationBreakdown"`
	From               time.Time                 `json:"from"`
	To                 time.Time                 `json:"to"`
}

// Recorder collects records in memory. Safe for concurrent use. Old
// records are capped to keep the buffer bounded.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	limit   int
}

const defaultLimit = 10000

// NewRecorder creates a Recorder holding at most limit records; limit <= 0
// takes the default.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Recorder{limit: limit}
}

// Add appends a record, evicting the oldest when the cap is reached. A
// zero timestamp is filled with the current time.
func (r *Recorder) Add(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) >= r.limit {
		r.records = r.records[1:]
	}
	r.records = append(r.records, rec)
}

// Snapshot copies the current records.
func (r *Recorder) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Generate builds a Report over the recorder's current contents.
func (r *Recorder) Generate() *Report {
	return Generate(r.Snapshot())
}

// Generate summarizes a slice of records. Amounts are summed for
// successful attempts only.
func Generate(records []Record) *Report {
	report := &Report{
		AmountByCurrency:   make(map[string]int64),
		ErrorBreakdown:     make(map[string]int),
		ProviderUsage:      make(map[provider.Provider]int),
		OperationBreakdown: make(map[string]int),
	}
	for i, rec := range records {
		report.TotalRequests++
		if i == 0 || rec.Timestamp.Before(report.From) {
			report.From = rec.Timestamp
		}
		if rec.Timestamp.After(report.To) {
			report.To = rec.Timestamp
		}
		if rec.Provider != "" {
			report.ProviderUsage[rec.Provider]++
		}
		if rec.Operation != "" {
			report.OperationBreakdown[rec.Operation]++
		}
		switch rec.Outcome {
		case OutcomeSuccess:
			report.Succeeded++
			if rec.Currency != "" {
				report.AmountByCurrency[rec.Currency] += rec.Amount
			}
		case OutcomeFailure:
			report.Failed++
			if rec.ErrorCode != "" {
				report.ErrorBreakdown[rec.ErrorCode]++
			}
		}
	}
	return report
}
