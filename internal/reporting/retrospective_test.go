package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Pushparaj13811/unipay/internal/provider"
)

func TestGenerate(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{Timestamp: base, Operation: "create_payment", Provider: provider.Stripe, Outcome: OutcomeSuccess, Amount: 2500, Currency: "USD"},
		{Timestamp: base.Add(time.Minute), Operation: "create_payment", Provider: provider.Razorpay, Outcome: OutcomeSuccess, Amount: 50000, Currency: "INR"},
		{Timestamp: base.Add(2 * time.Minute), Operation: "create_payment", Provider: provider.Stripe, Outcome: OutcomeFailure, ErrorCode: "UNSUPPORTED_CURRENCY"},
		{Timestamp: base.Add(3 * time.Minute), Operation: "refund", Provider: provider.Stripe, Outcome: OutcomeSuccess, Amount: 1000, Currency: "USD"},
	}

	report := Generate(records)

	assert.Equal(t, 4, report.TotalRequests)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, int64(3500), report.AmountByCurrency["USD"])
	assert.Equal(t, int64(50000), report.AmountByCurrency["INR"])
	assert.Equal(t, 1, report.ErrorBreakdown["UNSUPPORTED_CURRENCY"])
	assert.Equal(t, 3, report.ProviderUsage[provider.Stripe])
	assert.Equal(t, 3, report.OperationBreakdown["create_payment"])
	assert.Equal(t, base, report.From)
	assert.Equal(t, base.Add(3*time.Minute), report.To)
}

func TestGenerateEmpty(t *testing.T) {
	report := Generate(nil)
	assert.Zero(t, report.TotalRequests)
	assert.NotNil(t, report.AmountByCurrency)
	assert.NotNil(t, report.ErrorBreakdown)
}

func TestFailedAmountsNotSummed(t *testing.T) {
	report := Generate([]Record{
		{Outcome: OutcomeFailure, Amount: 999, Currency: "USD", ErrorCode: "NO_PROVIDER_AVAILABLE"},
	})
	assert.Zero(t, report.AmountByCurrency["USD"])
}

func TestRecorderCapEvictsOldest(t *testing.T) {
	r := NewRecorder(2)
	r.Add(Record{Operation: "first"})
	r.Add(Record{Operation: "second"})
	r.Add(Record{Operation: "third"})

	records := r.Snapshot()
	assert.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Operation)
	assert.Equal(t, "third", records[1].Operation)
}

func TestRecorderFillsTimestamp(t *testing.T) {
	r := NewRecorder(0)
	r.Add(Record{Operation: "create_payment"})
	assert.False(t, r.Snapshot()[0].Timestamp.IsZero())
}

func TestRecorderGenerate(t *testing.T) {
	r := NewRecorder(0)
	r.Add(Record{Operation: "create_payment", Provider: provider.Stripe, Outcome: OutcomeSuccess, Amount: 100, Currency: "USD"})
	report := r.Generate()
	assert.Equal(t, 1, report.TotalRequests)
	assert.Equal(t, 1, report.Succeeded)
}
