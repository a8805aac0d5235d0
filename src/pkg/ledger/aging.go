package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoice-reminder/src/pkg/util"
)

// due date layouts seen in accounting exports, tried in order
var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDueDate parses a due date cell. Dates without a zone are UTC.
func ParseDueDate(raw string) (due time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DaysOverdue is floor((now - due) / 24h). Unparseable or future dates are 0.
func DaysOverdue(rawDue string, now time.Time) int {
	due, ok := ParseDueDate(rawDue)
	if !ok {
		return 0
	}
	days := math.Floor(now.Sub(due).Hours() / 24)
	return int(util.Clamp(days, 0, math.MaxInt32))
}

// Bucket is one aging range. Max < 0 means unbounded.
type Bucket struct {
	Label     string          `json:"label"`
	Min       int             `json:"min"`
	Max       int             `json:"max"`
	Customers int             `json:"customers"`
	Total     decimal.Decimal `json:"total"`
}

// Contains reports whether days falls in the bucket, bounds inclusive.
func (bucket Bucket) Contains(days int) bool {
	return days >= bucket.Min && (bucket.Max < 0 || days <= bucket.Max)
}

// Aging is the portfolio split by each customer's oldest days overdue.
type Aging struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket returns the bucket with the given label.
func (aging Aging) Bucket(label string) (bucket Bucket, ok bool) {
	for _, candidate := range aging.Buckets {
		if candidate.Label == label {
			return candidate, true
		}
	}
	return Bucket{}, false
}

// Total sums every bucket.
func (aging Aging) Total() decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range aging.Buckets {
		total = total.Add(bucket.Total)
	}
	return total
}

func emptyBuckets() []Bucket {
	return []Bucket{
		{Label: "0-30", Min: 0, Max: 30, Total: decimal.Zero},
		{Label: "31-60", Min: 31, Max: 60, Total: decimal.Zero},
		{Label: "61+", Min: 61, Max: -1, Total: decimal.Zero},
	}
}

/*
bucketize places every customer by OldestDaysOverdue and adds its net payable.
Customers in credit count in their bucket but add nothing to its total.
*/
func bucketize(ledgers []*Ledger) Aging {
	aging := Aging{Buckets: emptyBuckets()}
	for _, ledger := range ledgers {
		for index := range aging.Buckets {
			bucket := &aging.Buckets[index]
			if !bucket.Contains(ledger.OldestDaysOverdue) {
				continue
			}
			bucket.Customers++
			if ledger.NetPayable.IsPositive() {
				bucket.Total = bucket.Total.Add(ledger.NetPayable)
			}
			break
		}
	}
	return aging
}
