/*
Guess which spreadsheet columns hold the customer, email, invoice, amount and due date.
*/
package mapping

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

/*
aliases holds the lowercase header names tried for each field, most specific first.
The order matters: the first alias that matches wins.
*/
var aliases = map[Field][]string{
	FieldCustomer: {"customer", "customer name", "account name", "client", "trading name", "client name", "debtor", "account"},
	FieldEmail:    {"email", "e-mail", "email address", "contact email", "mail"},
	FieldInvoice:  {"invoice", "invoice number", "invoice #", "doc", "invoice no", "document", "reference", "ref"},
	FieldAmount:   {"amount", "total", "balance", "amount due", "outstanding", "debit", "total overdue", "open amount"},
	FieldDueDate:  {"duedate", "due date", "due", "due_date", "payment due"},
}

// Aliases returns a copy of the alias list for field.
func Aliases(field Field) []string {
	return append([]string(nil), aliases[field]...)
}

/*
AutoMap proposes a FieldMap for the given headers.

For each field it tries, in alias order:
 1. a header equal to the alias (case-insensitive)
 2. a header containing the alias
 3. nothing, leaving the field unmapped

The returned values are the original header strings.
*/
func AutoMap(headers []string) FieldMap {
	lowered := make([]string, len(headers))
	for index, header := range headers {
		lowered[index] = NormalizeHeader(header)
	}

	pick := func(field Field) string {
		for _, alias := range aliases[field] {
			for index, header := range lowered {
				if header == alias {
					return headers[index]
				}
			}
		}
		for _, alias := range aliases[field] {
			for index, header := range lowered {
				if strings.Contains(header, alias) {
					return headers[index]
				}
			}
		}
		return ""
	}

	return FieldMap{
		Customer: pick(FieldCustomer),
		Email:    pick(FieldEmail),
		Invoice:  pick(FieldInvoice),
		Amount:   pick(FieldAmount),
		DueDate:  pick(FieldDueDate),
	}
}

// NormalizeHeader lowercases a header for comparison, dropping a UTF-8 BOM and surrounding spaces.
func NormalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\ufeff")
	header = norm.NFC.String(header)
	return strings.ToLower(strings.TrimSpace(header))
}
