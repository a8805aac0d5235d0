package reminder

import (
	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/ledger"
)

const (
	ReasonUnknownCustomer = "unknown customer"
	ReasonNothingOverdue  = "nothing overdue"
	ReasonCredited        = "credits cover the overdue amount"
)

// Draft is one selected customer with the reminder built for it. Payload is nil when skipped.
type Draft struct {
	Customer string   `json:"customer"`
	Payload  *Payload `json:"payload,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

/*
Drafts composes reminders for the selected customers, in selection order.
No selection means every customer of the portfolio, in ledger order.
*/
func Drafts(portfolio ledger.Portfolio, customers []string, policy Policy) []Draft {
	if len(customers) == 0 {
		customers = portfolio.Names()
	}

	drafts := make([]Draft, 0, len(customers))
	for _, name := range customers {
		customer := portfolio.Lookup(name)
		draft := Draft{Customer: name, Payload: Compose(customer, name, policy)}
		if draft.Payload == nil {
			draft.Reason = SkipReason(customer)
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// SkipReason explains why Compose returns nil for customer, or "" when it doesn't.
func SkipReason(customer *ledger.Ledger) string {
	switch {
	case customer == nil:
		return ReasonUnknownCustomer
	case len(customer.OverdueRows) == 0:
		return ReasonNothingOverdue
	case !customer.NetPayable.IsPositive():
		return ReasonCredited
	default:
		return ""
	}
}

// Payloads keeps the drafts that produced a reminder.
func Payloads(drafts []Draft) []*Payload {
	payloads := []*Payload{}
	for _, draft := range drafts {
		if draft.Payload != nil {
			payloads = append(payloads, draft.Payload)
		}
	}
	return payloads
}

// Jobs turns drafts into dispatch jobs. Attachments go on every request.
func Jobs(drafts []Draft, policy Policy, from string, year int, attachments []email.Attachment) []email.Job {
	jobs := make([]email.Job, 0, len(drafts))
	for _, draft := range drafts {
		job := email.Job{Customer: draft.Customer, Reason: draft.Reason}
		if draft.Payload != nil {
			request := BuildRequest(draft.Payload, policy, from, year)
			request.Attachments = attachments
			job.Request = &request
		}
		jobs = append(jobs, job)
	}
	return jobs
}
