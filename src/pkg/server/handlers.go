package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/export"
	"invoice-reminder/src/pkg/ledger"
	"invoice-reminder/src/pkg/mapping"
	"invoice-reminder/src/pkg/reminder"
	"invoice-reminder/src/pkg/session"
)

type uploadResponse struct {
	ID       string           `json:"id"`
	FileName string           `json:"fileName"`
	Headers  []string         `json:"headers"`
	FieldMap mapping.FieldMap `json:"fieldMap"`
	Missing  []mapping.Field  `json:"missing"`
	Records  int              `json:"records"`
	Rows     int              `json:"rows"`
	Skipped  int              `json:"skipped"`
}

func newUploadResponse(stored session.Session) uploadResponse {
	return uploadResponse{
		ID:       stored.ID,
		FileName: stored.FileName,
		Headers:  stored.Headers,
		FieldMap: stored.FieldMap,
		Missing:  stored.FieldMap.Missing(),
		Records:  len(stored.Records),
		Rows:     len(stored.Result.Rows),
		Skipped:  stored.Result.Skipped,
	}
}

func (server *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "sessions": server.options.Store.Len()})
}

func (server *Server) templates(c echo.Context) error {
	templates := reminder.ResolveTemplates(c.Request().Context(), server.options.Catalog)
	return c.JSON(http.StatusOK, map[string]any{"templates": templates})
}

func (server *Server) readUpload(c echo.Context) (upload session.Upload, e *xerr.Error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return upload, xerr.NewError(err, "read multipart field 'file'", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return upload, xerr.NewError(err, "open uploaded file", fileHeader.Filename)
	}
	defer file.Close()

	return session.Load(fileHeader.Filename, file, server.options.ChunkSize)
}

func (server *Server) createUpload(c echo.Context) error {
	upload, e := server.readUpload(c)
	if e != nil {
		return respondError(c, http.StatusBadRequest, "unable to read upload", e)
	}
	created := server.options.Store.Create(upload)
	return c.JSON(http.StatusCreated, newUploadResponse(created))
}

// replaceUpload swaps the file of an existing session. Rows are not merged.
func (server *Server) replaceUpload(c echo.Context) error {
	id := c.Param("id")
	if _, ok := server.options.Store.Get(id); !ok {
		return respondError(c, http.StatusNotFound, "upload not found", nil)
	}
	upload, e := server.readUpload(c)
	if e != nil {
		return respondError(c, http.StatusBadRequest, "unable to read upload", e)
	}
	replaced, e := server.options.Store.Replace(id, upload)
	if e != nil {
		return respondError(c, http.StatusNotFound, "upload not found", e)
	}
	return c.JSON(http.StatusOK, newUploadResponse(replaced))
}

func (server *Server) remap(c echo.Context) error {
	id := c.Param("id")
	if _, ok := server.options.Store.Get(id); !ok {
		return respondError(c, http.StatusNotFound, "upload not found", nil)
	}
	var fieldMap mapping.FieldMap
	err := c.Bind(&fieldMap)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid field map", xerr.NewError(err, "bind field map", id))
	}
	remapped, e := server.options.Store.Remap(id, fieldMap)
	if e != nil {
		return respondError(c, http.StatusBadRequest, "invalid field map", e)
	}
	return c.JSON(http.StatusOK, newUploadResponse(remapped))
}

// portfolio aggregates the session's rows as of now. Nothing is cached between requests.
func (server *Server) portfolio(c echo.Context) (portfolio ledger.Portfolio, ok bool) {
	stored, ok := server.options.Store.Get(c.Param("id"))
	if !ok {
		return portfolio, false
	}
	return ledger.Aggregate(stored.Result.Rows, server.options.Now()), true
}

type customerSummary struct {
	Name              string          `json:"name"`
	Email             string          `json:"email,omitempty"`
	Rows              int             `json:"rows"`
	OverdueRows       int             `json:"overdueRows"`
	CreditRows        int             `json:"creditRows"`
	TotalOverdue      decimal.Decimal `json:"totalOverdue"`
	TotalCredits      decimal.Decimal `json:"totalCredits"`
	NetPayable        decimal.Decimal `json:"netPayable"`
	OldestDaysOverdue int             `json:"oldestDaysOverdue"`
	Eligible          bool            `json:"eligible"`
	Reason            string          `json:"reason,omitempty"`
}

type customersResponse struct {
	Customers []customerSummary `json:"customers"`
	Aging     ledger.Aging      `json:"aging"`
	Stats     ledger.Stats      `json:"stats"`
	Similar   []ledger.Similar  `json:"similar"`
}

func (server *Server) customers(c echo.Context) error {
	portfolio, ok := server.portfolio(c)
	if !ok {
		return respondError(c, http.StatusNotFound, "upload not found", nil)
	}

	response := customersResponse{
		Customers: make([]customerSummary, 0, len(portfolio.Ledgers)),
		Aging:     portfolio.Aging,
		Stats:     portfolio.Stats,
		Similar:   ledger.SimilarNames(portfolio),
	}
	for _, customer := range portfolio.Ledgers {
		response.Customers = append(response.Customers, customerSummary{
			Name:              customer.Name,
			Email:             customer.Email,
			Rows:              len(customer.Rows),
			OverdueRows:       len(customer.OverdueRows),
			CreditRows:        len(customer.CreditRows),
			TotalOverdue:      customer.TotalOverdue,
			TotalCredits:      customer.TotalCredits,
			NetPayable:        customer.NetPayable,
			OldestDaysOverdue: customer.OldestDaysOverdue,
			Eligible:          customer.Eligible(),
			Reason:            reminder.SkipReason(customer),
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (server *Server) policyFor(ctx context.Context, templateID, replyTo string) reminder.Policy {
	policy := server.options.Policy
	if templateID != "" {
		policy = reminder.PolicyFor(reminder.ResolveTemplates(ctx, server.options.Catalog), templateID, policy)
	}
	if strings.TrimSpace(replyTo) != "" {
		policy.ReplyTo = replyTo
	}
	return policy
}

type previewResponse struct {
	Customer string            `json:"customer"`
	Eligible bool              `json:"eligible"`
	Reason   string            `json:"reason,omitempty"`
	Payload  *reminder.Payload `json:"payload,omitempty"`
	Subject  string            `json:"subject,omitempty"`
	Text     string            `json:"text,omitempty"`
	HTML     string            `json:"html,omitempty"`
}

func (server *Server) preview(c echo.Context) error {
	portfolio, ok := server.portfolio(c)
	if !ok {
		return respondError(c, http.StatusNotFound, "upload not found", nil)
	}
	name := c.QueryParam("customer")
	customer := portfolio.Lookup(name)
	if customer == nil {
		return respondError(c, http.StatusNotFound, "customer not found", nil)
	}

	policy := server.policyFor(c.Request().Context(), c.QueryParam("template"), c.QueryParam("replyTo"))
	payload := reminder.Compose(customer, name, policy)
	if payload == nil {
		return c.JSON(http.StatusOK, previewResponse{Customer: name, Reason: reminder.SkipReason(customer)})
	}
	return c.JSON(http.StatusOK, previewResponse{
		Customer: name,
		Eligible: true,
		Payload:  payload,
		Subject:  payload.Subject,
		Text:     reminder.RenderText(payload, policy),
		HTML:     reminder.RenderHTML(payload, policy),
	})
}

type sendRequest struct {
	Customers []string `json:"customers"`
	From      string   `json:"from"`
	ReplyTo   string   `json:"replyTo"`
	Template  string   `json:"template"`
	Provider  string   `json:"provider"`
	DryRun    bool     `json:"dryRun"`
}

/*
send dispatches reminders to the selected customers. The selection is
required here: an empty list is rejected instead of mailing everyone.
*/
func (server *Server) send(c echo.Context) error {
	portfolio, ok := server.portfolio(c)
	if !ok {
		return respondError(c, http.StatusNotFound, "upload not found", nil)
	}

	var body sendRequest
	err := c.Bind(&body)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid send request", xerr.NewError(err, "bind send request", c.Param("id")))
	}
	if len(body.Customers) == 0 {
		return respondError(c, http.StatusBadRequest, "no customers selected", nil)
	}
	from := firstNonBlank(body.From, server.options.From)
	if from == "" {
		return respondError(c, http.StatusBadRequest, "sender address is required", nil)
	}

	var sender email.Sender = &email.DryRunSender{}
	if !body.DryRun {
		provider := server.options.Provider
		if body.Provider != "" {
			var e *xerr.Error
			provider, e = email.ParseProvider(body.Provider)
			if e != nil {
				return respondError(c, http.StatusBadRequest, "unknown provider", e)
			}
		}
		var e *xerr.Error
		sender, e = server.options.NewSender(c.Request().Context(), provider)
		if e != nil {
			return respondError(c, http.StatusServiceUnavailable, fmt.Sprintf("%s is not configured", provider), e)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), SendTimeout())
	defer cancel()

	policy := server.policyFor(ctx, body.Template, body.ReplyTo)
	drafts := reminder.Drafts(portfolio, body.Customers, policy)
	jobs := reminder.Jobs(drafts, policy, from, server.options.Now().Year(), server.options.Logo)
	return c.JSON(http.StatusOK, email.Dispatch(ctx, sender, jobs, server.options.Interval))
}

type exportRequest struct {
	Customers []string `json:"customers"`
	From      string   `json:"from"`
	ReplyTo   string   `json:"replyTo"`
	Template  string   `json:"template"`
	Manifest  bool     `json:"manifest"`
}

// export builds the .eml archive. No selection exports every eligible customer.
func (server *Server) export(c echo.Context) error {
	portfolio, ok := server.portfolio(c)
	if !ok {
		return respondError(c, http.StatusNotFound, "upload not found", nil)
	}

	var body exportRequest
	err := c.Bind(&body)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid export request", xerr.NewError(err, "bind export request", c.Param("id")))
	}

	now := server.options.Now()
	policy := server.policyFor(c.Request().Context(), body.Template, body.ReplyTo)
	payloads := reminder.Payloads(reminder.Drafts(portfolio, body.Customers, policy))
	if len(payloads) == 0 {
		return respondError(c, http.StatusBadRequest, "no reminders to export", nil)
	}

	archive, e := export.Archive(payloads, policy, firstNonBlank(body.From, server.options.From), now, server.options.Logo, body.Manifest)
	if e != nil {
		return respondError(c, http.StatusInternalServerError, "unable to build archive", e)
	}

	fileName := fmt.Sprintf("reminders-%s.zip", now.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Blob(http.StatusOK, "application/zip", archive)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
