package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/reminder"
)

var (
	policy = reminder.Policy{Brand: "Paramount Liquor", SubjectContext: reminder.DefaultSubjectContext, CurrencySymbol: "$", ReplyTo: "ar@paramount.test"}
	now    = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func payloadFor(name, address string, amount int64) *reminder.Payload {
	total := decimal.NewFromInt(amount)
	payload := &reminder.Payload{
		CustomerName: name,
		Email:        address,
		OverdueRows:  []reminder.OverdueLine{{InvoiceRef: "INV-1", Amount: total, DueDate: "2024-01-01"}},
		CreditRows:   []reminder.CreditLine{},
		TotalOverdue: total,
		TotalCredits: decimal.Zero,
		NetPayable:   total,
	}
	payload.Subject = reminder.Subject(payload, policy)
	return payload
}

func readArchive(t *testing.T, archive []byte) map[string]string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	entries := map[string]string{}
	for _, file := range reader.File {
		opened, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(opened)
		require.NoError(t, err)
		_ = opened.Close()
		entries[file.Name] = string(content)
	}
	return entries
}

func TestArchiveOneMessagePerPayload(t *testing.T) {
	payloads := []*reminder.Payload{
		payloadFor("Acme Pty Ltd", "ap@acme.test", 100),
		nil,
		payloadFor("Evil\r\nBcc: x@y.z", "evil@y.test", 5),
		payloadFor("Acme Pty Ltd", "", 7),
	}

	archive, e := Archive(payloads, policy, "ar@paramount.test", now, nil, false)
	require.Nil(t, e)

	entries := readArchive(t, archive)
	assert.Len(t, entries, 3)
	require.Contains(t, entries, "acme-pty-ltd.eml")
	require.Contains(t, entries, "acme-pty-ltd-2.eml")
	require.Contains(t, entries, "evil-bcc-x-y-z.eml")

	acme := entries["acme-pty-ltd.eml"]
	assert.Contains(t, acme, "Subject: Paramount Liquor Overdue Invoices - Acme Pty Ltd\r\n")
	assert.Contains(t, acme, "To: ap@acme.test\r\n")
	assert.Contains(t, acme, "multipart/alternative")

	evil := entries["evil-bcc-x-y-z.eml"]
	assert.Contains(t, evil, "Subject: Paramount Liquor Overdue Invoices - Evil Bcc: x@y.z\r\n")
	assert.Contains(t, evil, "Hello Evil Bcc: x@y.z,")
	header, _, found := strings.Cut(evil, "\r\n\r\n")
	require.True(t, found)
	assert.NotContains(t, header, "\r\nBcc:")
	assert.NotContains(t, entries["acme-pty-ltd-2.eml"], "\r\nTo:")
}

func TestArchiveManifestAndLogo(t *testing.T) {
	logo := email.Attachment{Filename: "logo.png", ContentType: "image/png", ContentID: email.LogoContentID, Inline: true, Content: []byte("png")}

	archive, e := Archive([]*reminder.Payload{payloadFor("Acme", "ap@acme.test", 1234)}, policy, "ar@paramount.test", now, []email.Attachment{logo}, true)
	require.Nil(t, e)

	entries := readArchive(t, archive)
	assert.Contains(t, entries["acme.eml"], "Content-ID: <logo>")

	records, err := csv.NewReader(strings.NewReader(entries[ManifestName])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"customer", "email", "file", "net_payable"},
		{"Acme", "ap@acme.test", "acme.eml", "1234.00"},
	}, records)
}

func TestArchiveEmpty(t *testing.T) {
	archive, e := Archive(nil, policy, "ar@paramount.test", now, nil, false)
	require.Nil(t, e)
	assert.Empty(t, readArchive(t, archive))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Acme Pty Ltd":      "acme-pty-ltd",
		"  O'Brien & Sons ": "o-brien-sons",
		"Café Nero":         "cafe-nero",
		"***":               "customer",
		"":                  "customer",
		"Store #12":         "store-12",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, Slug(input), input)
	}
}

func TestWriteArchiveAndSaveJSON(t *testing.T) {
	directory := filepath.Join(t.TempDir(), "out", "nested")

	archivePath := filepath.Join(directory, "reminders.zip")
	require.Nil(t, WriteArchive(archivePath, []byte("zip")))
	written, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, "zip", string(written))

	summaryPath := filepath.Join(directory, "summary.json")
	require.Nil(t, SaveJSON(summaryPath, email.Summary{OK: 2, Results: []email.Result{}}))
	written, err = os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "\"ok\": 2")
}
