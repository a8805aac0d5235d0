package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuumbleweed/xerr"

	echomw "invoice-reminder/src/pkg/echo-middleware"
	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/reminder"
	"invoice-reminder/src/pkg/session"
)

const receivablesCSV = "Customer,Email,Invoice,Amount,Due Date\n" +
	"Acme,ap@acme.test,INV-1,\"1,200.00\",2024-01-01\n" +
	"Acme,,CR-1,-200,2024-01-15\n" +
	"Beta,,INV-2,50,2024-02-20\n" +
	"Gamma,g@gamma.test,INV-3,(10),2024-02-01\n"

type fakeSender struct {
	mu       sync.Mutex
	requests []email.Request
}

func (sender *fakeSender) Send(ctx context.Context, request email.Request) (string, *xerr.Error) {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.requests = append(sender.requests, request)
	return fmt.Sprintf("msg-%d", len(sender.requests)), nil
}

func newTestServer(t *testing.T, configured bool) (*Server, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	server := New(Options{
		Store:    session.NewStore(0),
		Policy:   reminder.Policy{Brand: "Paramount Liquor", SubjectContext: reminder.DefaultSubjectContext, CurrencySymbol: "$", ReplyTo: "ar@paramount.test"},
		Provider: email.ProviderSendGrid,
		NewSender: func(ctx context.Context, provider email.Provider) (email.Sender, *xerr.Error) {
			if !configured {
				return nil, xerr.NewError(fmt.Errorf("SENDGRID_API_KEY is not set"), "create email sender", string(provider))
			}
			return sender, nil
		},
		From:      "ar@paramount.test",
		ChunkSize: 2,
		Limiter:   echomw.NewRateLimiter(1000, 1000, 0),
		Now:       func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	})
	return server, sender
}

func do(t *testing.T, server *Server, request *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	return recorder
}

func uploadRequest(t *testing.T, method, target, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(method, target, &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

func jsonRequest(t *testing.T, method, target string, value any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(value)
	require.NoError(t, err)
	request := httptest.NewRequest(method, target, bytes.NewReader(encoded))
	request.Header.Set("Content-Type", "application/json")
	return request
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &value), recorder.Body.String())
	return value
}

func createUpload(t *testing.T, server *Server) uploadResponse {
	t.Helper()
	recorder := do(t, server, uploadRequest(t, http.MethodPost, "/api/uploads", "aged.csv", receivablesCSV))
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decode[uploadResponse](t, recorder)
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, true)
	recorder := do(t, server, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, recorder.Body.String())
}

func TestTemplatesFallBackToBuiltins(t *testing.T) {
	server, _ := newTestServer(t, true)
	recorder := do(t, server, httptest.NewRequest(http.MethodGet, "/api/templates", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	response := decode[struct {
		Templates []email.Template `json:"templates"`
	}](t, recorder)
	assert.Equal(t, reminder.DefaultTemplates(), response.Templates)
}

func TestCreateUpload(t *testing.T) {
	server, _ := newTestServer(t, true)
	created := createUpload(t, server)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "aged.csv", created.FileName)
	assert.Equal(t, "Due Date", created.FieldMap.DueDate)
	assert.Empty(t, created.Missing)
	assert.Equal(t, 4, created.Rows)
	assert.Equal(t, 0, created.Skipped)
}

func TestCreateUploadWithoutFile(t *testing.T) {
	server, _ := newTestServer(t, true)
	recorder := do(t, server, httptest.NewRequest(http.MethodPost, "/api/uploads", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"error":"unable to read upload"`)
}

func TestReplaceUpload(t *testing.T) {
	server, _ := newTestServer(t, true)
	created := createUpload(t, server)

	recorder := do(t, server, uploadRequest(t, http.MethodPut, "/api/uploads/"+created.ID, "fresh.csv", "Client,Total\nZeta,5\n"))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	replaced := decode[uploadResponse](t, recorder)

	assert.Equal(t, created.ID, replaced.ID)
	assert.Equal(t, 1, replaced.Rows)
	assert.Equal(t, "Client", replaced.FieldMap.Customer)

	recorder = do(t, server, uploadRequest(t, http.MethodPut, "/api/uploads/nope", "fresh.csv", "Client,Total\nZeta,5\n"))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRemap(t *testing.T) {
	server, _ := newTestServer(t, true)
	created := createUpload(t, server)

	fieldMap := created.FieldMap
	fieldMap.Customer = "Invoice"
	recorder := do(t, server, jsonRequest(t, http.MethodPut, "/api/uploads/"+created.ID+"/mapping", fieldMap))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "Invoice", decode[uploadResponse](t, recorder).FieldMap.Customer)

	fieldMap.Customer = "Not A Header"
	recorder = do(t, server, jsonRequest(t, http.MethodPut, "/api/uploads/"+created.ID+"/mapping", fieldMap))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCustomers(t *testing.T) {
	server, _ := newTestServer(t, true)
	created := createUpload(t, server)

	recorder := do(t, server, httptest.NewRequest(http.MethodGet, "/api/uploads/"+created.ID+"/customers", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	response := decode[customersResponse](t, recorder)

	require.Len(t, response.Customers, 3)
	acme := response.Customers[0]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, "1000", acme.NetPayable.String())
	assert.Equal(t, 60, acme.OldestDaysOverdue)
	assert.True(t, acme.Eligible)
	assert.False(t, response.Customers[2].Eligible)
	assert.Equal(t, reminder.ReasonNothingOverdue, response.Customers[2].Reason)

	assert.Equal(t, 2, response.Stats.EligibleCustomers)
	assert.Equal(t, 1, response.Stats.EligibleWithoutEmail)
	middle, ok := response.Aging.Bucket("31-60")
	require.True(t, ok)
	assert.Equal(t, 1, middle.Customers)

	recorder = do(t, server, httptest.NewRequest(http.MethodGet, "/api/uploads/nope/customers", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestPreview(t *testing.T) {
	server, _ := newTestServer(t, true)
	created := createUpload(t, server)
	base := "/api/uploads/" + created.ID + "/preview?customer="

	recorder := do(t, server, httptest.NewRequest(http.MethodGet, base+"Acme&template=builtin-final-notice", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	preview := decode[previewResponse](t, recorder)
	assert.True(t, preview.Eligible)
	assert.Equal(t, "Paramount Liquor Final Notice - Overdue Invoices - Acme", preview.Subject)
	assert.Contains(t, preview.Text, "INV-1")
	assert.Contains(t, preview.HTML, "Unapplied credits")

	recorder = do(t, server, httptest.NewRequest(http.MethodGet, base+"Gamma", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	preview = decode[previewResponse](t, recorder)
	assert.False(t, preview.Eligible)
	assert.Nil(t, preview.Payload)

	recorder = do(t, server, httptest.NewRequest(http.MethodGet, base+url.QueryEscape("Nobody"), nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSendDryRun(t *testing.T) {
	server, sender := newTestServer(t, true)
	created := createUpload(t, server)

	recorder := do(t, server, jsonRequest(t, http.MethodPost, "/api/uploads/"+created.ID+"/send", sendRequest{
		Customers: []string{"Acme", "Beta", "Gamma"},
		DryRun:    true,
	}))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	summary := decode[email.Summary](t, recorder)

	assert.Equal(t, 1, summary.OK)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, sender.requests)
}

func TestSend(t *testing.T) {
	server, sender := newTestServer(t, true)
	created := createUpload(t, server)

	recorder := do(t, server, jsonRequest(t, http.MethodPost, "/api/uploads/"+created.ID+"/send", sendRequest{
		Customers: []string{"Acme"},
		From:      "Paramount AR <ar@paramount.test>",
		ReplyTo:   "collections@paramount.test",
	}))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	summary := decode[email.Summary](t, recorder)

	assert.Equal(t, 1, summary.OK)
	require.Len(t, sender.requests, 1)
	assert.Equal(t, "ap@acme.test", sender.requests[0].To)
	assert.Equal(t, "Paramount AR <ar@paramount.test>", sender.requests[0].From)
	assert.Equal(t, "collections@paramount.test", sender.requests[0].ReplyTo)
	assert.Equal(t, "msg-1", summary.Results[0].ID)
}

func TestSendRejections(t *testing.T) {
	server, _ := newTestServer(t, false)
	created := createUpload(t, server)
	target := "/api/uploads/" + created.ID + "/send"

	recorder := do(t, server, jsonRequest(t, http.MethodPost, target, sendRequest{}))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = do(t, server, jsonRequest(t, http.MethodPost, target, sendRequest{Customers: []string{"Acme"}, Provider: "pigeon"}))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = do(t, server, jsonRequest(t, http.MethodPost, target, sendRequest{Customers: []string{"Acme"}}))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "sendgrid is not configured")
}

func TestExport(t *testing.T) {
	server, _ := newTestServer(t, true)
	created := createUpload(t, server)

	recorder := do(t, server, jsonRequest(t, http.MethodPost, "/api/uploads/"+created.ID+"/export", exportRequest{Manifest: true}))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "application/zip", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "reminders-2024-03-01.zip")

	archive := recorder.Body.Bytes()
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	names := []string{}
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	assert.Equal(t, []string{"acme.eml", "beta.eml", "summary.csv"}, names)

	recorder = do(t, server, jsonRequest(t, http.MethodPost, "/api/uploads/"+created.ID+"/export", exportRequest{Customers: []string{"Gamma"}}))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "no reminders to export"))
}
