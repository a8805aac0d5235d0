package reminder

import (
	"html"
	"regexp"
	"strconv"
)

// Token is a placeholder name usable as {{Token}} in custom subjects and bodies.
type Token string

const (
	TokenCustomerName Token = "CustomerName"
	TokenBrand        Token = "Brand"
	TokenDepartment   Token = "Department"
	TokenTotalOverdue Token = "TotalOverdue"
	TokenTotalCredits Token = "TotalCredits"
	TokenNetPayable   Token = "NetPayable"
	TokenInvoiceTable Token = "InvoiceTable"
	TokenCreditTable  Token = "CreditTable"
	TokenInvoiceCount Token = "InvoiceCount"
	TokenCreditCount  Token = "CreditCount"
)

// Tokens is the complete placeholder set.
var Tokens = []Token{
	TokenCustomerName, TokenBrand, TokenDepartment,
	TokenTotalOverdue, TokenTotalCredits, TokenNetPayable,
	TokenInvoiceTable, TokenCreditTable, TokenInvoiceCount, TokenCreditCount,
}

var knownTokens = func() map[Token]bool {
	known := make(map[Token]bool, len(Tokens))
	for _, token := range Tokens {
		known[token] = true
	}
	return known
}()

// Values maps tokens to their replacement text.
type Values map[Token]string

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z]+)\s*\}\}`)

/*
Substitute replaces {{Token}} placeholders (inner spaces allowed) in one pass.

Unknown placeholders, and known ones without a value, are left as they are.
Replacement text is not scanned again.
*/
func Substitute(template string, values Values) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := Token(placeholderPattern.FindStringSubmatch(match)[1])
		if !knownTokens[name] {
			return match
		}
		value, exists := values[name]
		if !exists {
			return match
		}
		return value
	})
}

// TextValues are the replacements for plain-text output.
func TextValues(payload *Payload, policy Policy) Values {
	return Values{
		TokenCustomerName: SingleLine(payload.CustomerName),
		TokenBrand:        policy.Brand,
		TokenDepartment:   policy.Department,
		TokenTotalOverdue: FormatMoney(payload.TotalOverdue, policy.CurrencySymbol),
		TokenTotalCredits: FormatMoney(payload.TotalCredits, policy.CurrencySymbol),
		TokenNetPayable:   FormatMoney(payload.NetPayable, policy.CurrencySymbol),
		TokenInvoiceTable: textInvoiceTable(payload, policy),
		TokenCreditTable:  textCreditTable(payload, policy),
		TokenInvoiceCount: strconv.Itoa(len(payload.OverdueRows)),
		TokenCreditCount:  strconv.Itoa(len(payload.CreditRows)),
	}
}

// HTMLValues are the replacements for HTML output. Text values are escaped, tables are markup.
func HTMLValues(payload *Payload, policy Policy) Values {
	values := TextValues(payload, policy)
	for token, value := range values {
		values[token] = html.EscapeString(value)
	}
	values[TokenInvoiceTable] = htmlInvoiceTable(payload, policy)
	values[TokenCreditTable] = htmlCreditSection(payload, policy)
	return values
}
