/*
Turn raw spreadsheet records into normalized receivable rows.
*/
package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-reminder/src/pkg/mapping"
	"invoice-reminder/src/pkg/normalize"
)

// RawRecord is one input row keyed by header. Cells are strings, numbers or nil.
type RawRecord map[string]any

// Chunk is what a source reader hands over at a time.
type Chunk struct {
	Data   []RawRecord `json:"data"`
	Fields []string    `json:"fields"`
}

/*
Row is a normalized receivable line.

Customer is never empty. Email is empty when unknown.
Amount is positive for money owed and negative for credits.
*/
type Row struct {
	Customer string          `json:"customer"`
	Email    string          `json:"email,omitempty"`
	Invoice  string          `json:"invoice"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  string          `json:"dueDate"`
}

// Result is the outcome of ingesting a batch of records.
type Result struct {
	Rows    []Row `json:"rows"`
	Skipped int   `json:"skipped"`
}

/*
Ingest normalizes records with the given field map.

Records without a customer are dropped and counted in Result.Skipped.
Nothing else can make a record fail: unmapped or missing cells become "".
Duplicates are kept.
*/
func Ingest(records []RawRecord, fieldMap mapping.FieldMap) Result {
	result := Result{Rows: make([]Row, 0, len(records))}
	for _, record := range records {
		row, ok := normalizeRecord(record, fieldMap)
		if !ok {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

func normalizeRecord(record RawRecord, fieldMap mapping.FieldMap) (row Row, ok bool) {
	customer := cellText(record, fieldMap.Customer)
	if customer == "" {
		return row, false
	}

	row = Row{
		Customer: customer,
		Email:    cellText(record, fieldMap.Email),
		Invoice:  cellText(record, fieldMap.Invoice),
		Amount:   cellAmount(record, fieldMap.Amount),
		DueDate:  cellText(record, fieldMap.DueDate),
	}
	return row, true
}

func cellText(record RawRecord, header string) string {
	if header == "" {
		return ""
	}
	value, exists := record[header]
	if !exists || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func cellAmount(record RawRecord, header string) decimal.Decimal {
	if header == "" {
		return decimal.Zero
	}
	return normalize.Amount(record[header])
}

/*
Ingestor accumulates rows across chunks delivered by a streaming reader.

Every chunk is processed once, in arrival order, and appended. Earlier chunks
are never revisited. An Ingestor belongs to a single upload: a new upload
gets a new Ingestor.
*/
type Ingestor struct {
	fieldMap mapping.FieldMap
	rows     []Row
	skipped  int
}

// NewIngestor creates an Ingestor that reads records with fieldMap.
func NewIngestor(fieldMap mapping.FieldMap) *Ingestor {
	return &Ingestor{fieldMap: fieldMap}
}

// Feed normalizes one chunk of records and appends the result.
func (ingestor *Ingestor) Feed(records []RawRecord) {
	result := Ingest(records, ingestor.fieldMap)
	ingestor.rows = append(ingestor.rows, result.Rows...)
	ingestor.skipped += result.Skipped
}

// Rows returns a copy of every row ingested so far.
func (ingestor *Ingestor) Rows() []Row {
	rows := make([]Row, len(ingestor.rows))
	copy(rows, ingestor.rows)
	return rows
}

// Skipped is the number of records dropped for lack of a customer.
func (ingestor *Ingestor) Skipped() int {
	return ingestor.skipped
}

// Result returns rows and skipped count together.
func (ingestor *Ingestor) Result() Result {
	return Result{Rows: ingestor.Rows(), Skipped: ingestor.skipped}
}
