package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reminder/src/pkg/ingest"
)

func TestDaysOverdue(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  string
		want int
	}{
		{"iso", "2024-01-31", 30},
		{"iso one more", "2024-01-30", 31},
		{"us", "01/31/2024", 30},
		{"short us", "1/31/2024", 30},
		{"slashes", "2024/01/31", 30},
		{"abbreviated month", "31-Jan-2024", 30},
		{"long form", "Jan 31, 2024", 30},
		{"day first words", "31 Jan 2024", 30},
		{"rfc3339", "2024-01-31T00:00:00Z", 30},
		{"partial day floors", "2024-02-29 06:00:00", 0},
		{"future", "2024-04-01", 0},
		{"empty", "", 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysOverdue(tt.due, at))
		})
	}
}

func TestAgingBoundaries(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dayBefore := func(days int) string {
		return at.AddDate(0, 0, -days).Format("2006-01-02")
	}
	rows := []ingest.Row{
		row("Thirty", "1", "100", dayBefore(30)),
		row("ThirtyOne", "2", "200", dayBefore(31)),
		row("Sixty", "3", "300", dayBefore(60)),
		row("SixtyOne", "4", "400", dayBefore(61)),
		row("Fresh", "5", "50", dayBefore(0)),
		row("Credit", "6", "-70", dayBefore(90)),
	}

	aging := Aggregate(rows, at).Aging

	require.Len(t, aging.Buckets, 3)
	first, _ := aging.Bucket("0-30")
	second, _ := aging.Bucket("31-60")
	third, _ := aging.Bucket("61+")

	assert.Equal(t, 2, first.Customers)
	assert.True(t, first.Total.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, second.Customers)
	assert.True(t, second.Total.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 2, third.Customers)
	assert.True(t, third.Total.Equal(decimal.NewFromInt(400)), "credit balances add nothing")
	assert.True(t, aging.Total().Equal(decimal.NewFromInt(1050)))

	_, ok := aging.Bucket("90+")
	assert.False(t, ok)
}

func TestAgingUsesOldestRow(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []ingest.Row{
		row("Acme", "1", "10", "2024-02-25"),
		row("Acme", "2", "10", "2023-12-01"),
		row("Acme", "3", "10", "unknown"),
	}

	portfolio := Aggregate(rows, at)

	assert.Equal(t, 91, portfolio.Lookup("Acme").OldestDaysOverdue)
	bucket, _ := portfolio.Aging.Bucket("61+")
	assert.Equal(t, 1, bucket.Customers)
}
