package mapping

import "fmt"

// Field is one of the five canonical columns the pipeline reads.
type Field string

const (
	FieldCustomer Field = "customer"
	FieldEmail    Field = "email"
	FieldInvoice  Field = "invoice"
	FieldAmount   Field = "amount"
	FieldDueDate  Field = "dueDate"
)

// Fields lists the canonical fields in display order.
var Fields = []Field{FieldCustomer, FieldEmail, FieldInvoice, FieldAmount, FieldDueDate}

/*
FieldMap tells which input header feeds each canonical field.
An empty string means the field is not mapped.

FieldMap is a value type: overrides go through With and produce a new map.
*/
type FieldMap struct {
	Customer string `json:"customer"`
	Email    string `json:"email"`
	Invoice  string `json:"invoice"`
	Amount   string `json:"amount"`
	DueDate  string `json:"dueDate"`
}

// Header returns the header mapped to field.
func (m FieldMap) Header(field Field) string {
	switch field {
	case FieldCustomer:
		return m.Customer
	case FieldEmail:
		return m.Email
	case FieldInvoice:
		return m.Invoice
	case FieldAmount:
		return m.Amount
	case FieldDueDate:
		return m.DueDate
	default:
		return ""
	}
}

/*
With returns a copy of the map where field points to header.
Operators use it to correct a guess made by AutoMap.
*/
func (m FieldMap) With(field Field, header string) (FieldMap, error) {
	switch field {
	case FieldCustomer:
		m.Customer = header
	case FieldEmail:
		m.Email = header
	case FieldInvoice:
		m.Invoice = header
	case FieldAmount:
		m.Amount = header
	case FieldDueDate:
		m.DueDate = header
	default:
		return m, fmt.Errorf("unknown field '%s'", field)
	}
	return m, nil
}

// Missing lists the fields reminders can't be built without that are still unmapped.
func (m FieldMap) Missing() []Field {
	missing := []Field{}
	if m.Customer == "" {
		missing = append(missing, FieldCustomer)
	}
	if m.Amount == "" {
		missing = append(missing, FieldAmount)
	}
	return missing
}

// Validate checks that every mapped header exists in headers.
func (m FieldMap) Validate(headers []string) error {
	known := make(map[string]bool, len(headers))
	for _, header := range headers {
		known[header] = true
	}
	for _, field := range Fields {
		header := m.Header(field)
		if header != "" && !known[header] {
			return fmt.Errorf("field '%s' is mapped to unknown header '%s'", field, header)
		}
	}
	return nil
}
