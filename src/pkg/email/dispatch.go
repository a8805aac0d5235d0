package email

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// Job is one selected customer. A nil Request means there is nothing to send.
type Job struct {
	Customer string
	Request  *Request
	Reason   string // why Request is nil
}

const (
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"
)

type Result struct {
	Customer string `json:"customer"`
	To       string `json:"to,omitempty"`
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Summary counts outcomes. Results keep job order.
type Summary struct {
	OK        int      `json:"ok"`
	Fail      int      `json:"fail"`
	Skipped   int      `json:"skipped"`
	Cancelled int      `json:"cancelled"`
	Results   []Result `json:"results"`
}

/*
Dispatch sends jobs one at a time, at most one send per interval.

Jobs without a request or without a recipient are skipped. A failed send
doesn't stop the run. When ctx ends, the remaining jobs are marked cancelled.
*/
func Dispatch(ctx context.Context, sender Sender, jobs []Job, interval time.Duration) Summary {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	summary := Summary{Results: make([]Result, 0, len(jobs))}
	for index, job := range jobs {
		if job.Request == nil || job.Request.To == "" {
			reason := job.Reason
			if reason == "" {
				reason = "no email address"
			}
			summary.Skipped++
			summary.Results = append(summary.Results, Result{Customer: job.Customer, Status: StatusSkipped, Error: reason})
			tl.Log(tl.Info1, palette.Yellow, "Skipping '%s': %s", job.Customer, reason)
			continue
		}

		waitErr := limiter.Wait(ctx)
		if waitErr != nil {
			for _, rest := range jobs[index:] {
				summary.Cancelled++
				summary.Results = append(summary.Results, Result{Customer: rest.Customer, Status: StatusCancelled})
			}
			tl.Log(tl.Warning, palette.Yellow, "Dispatch %s with %s jobs left: %s", "cancelled", len(jobs)-index, waitErr)
			break
		}

		id, e := sender.Send(ctx, *job.Request)
		if e != nil {
			summary.Fail++
			summary.Results = append(summary.Results, Result{Customer: job.Customer, To: job.Request.To, Status: StatusFailed, Error: fmt.Sprintf("%v", e)})
			tl.Log(tl.Warning, palette.Red, "Unable to send reminder to '%s': %v", job.Customer, e)
			continue
		}
		summary.OK++
		summary.Results = append(summary.Results, Result{Customer: job.Customer, To: job.Request.To, Status: StatusSent, ID: id})
		tl.Log(tl.Info1, palette.Green, "Sent reminder to '%s' <%s>", job.Customer, job.Request.To)
	}

	tl.Log(tl.Notice, palette.BlueBold, "Done. Success: %s, Fail: %s, Skipped: %s", summary.OK, summary.Fail, summary.Skipped)
	return summary
}
