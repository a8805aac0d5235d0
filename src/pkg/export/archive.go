/*
Package export packs reminders into a zip of .eml files, one per customer,
so they can be opened or sent from any mail client.
*/
package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/reminder"
)

const ManifestName = "summary.csv"

/*
Archive renders every payload into its own .eml entry named after the
customer. Entries keep payload order. When withManifest is set a
summary.csv lists customer, email, file name and net payable.

Attachments (the inline logo) are added to every message.
*/
func Archive(payloads []*reminder.Payload, policy reminder.Policy, from string, now time.Time, attachments []email.Attachment, withManifest bool) (archive []byte, e *xerr.Error) {
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)

	names := newNamer()
	manifest := [][]string{{"customer", "email", "file", "net_payable"}}

	for _, payload := range payloads {
		if payload == nil {
			continue
		}
		request := reminder.BuildRequest(payload, policy, from, now.Year())
		request.Attachments = attachments

		fileName := names.next(payload.CustomerName) + ".eml"
		entry, err := writer.CreateHeader(&zip.FileHeader{Name: fileName, Method: zip.Deflate, Modified: now})
		if err != nil {
			return nil, xerr.NewError(err, "Unable to create archive entry", fileName)
		}
		_, err = email.BuildMessage(request, now).WriteTo(entry)
		if err != nil {
			return nil, xerr.NewError(err, "Unable to write message", fileName)
		}
		manifest = append(manifest, []string{payload.CustomerName, payload.Email, fileName, payload.NetPayable.StringFixed(2)})
	}

	if withManifest {
		entry, err := writer.CreateHeader(&zip.FileHeader{Name: ManifestName, Method: zip.Deflate, Modified: now})
		if err != nil {
			return nil, xerr.NewError(err, "Unable to create archive entry", ManifestName)
		}
		csvWriter := csv.NewWriter(entry)
		err = csvWriter.WriteAll(manifest)
		if err != nil {
			return nil, xerr.NewError(err, "Unable to write manifest", ManifestName)
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, xerr.NewError(err, "Unable to finish archive", len(payloads))
	}

	tl.Log(tl.Info1, palette.Green, "Exported %s reminders (%s bytes)", len(manifest)-1, buffer.Len())
	return buffer.Bytes(), nil
}

/*
Slug keeps ASCII letters and digits, lowercased, and joins the runs between
them with single dashes. Accents are dropped ("Café" -> "cafe").
*/
func Slug(name string) string {
	var builder strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(name)) {
		if r >= 0x300 && r <= 0x36f {
			continue // combining mark
		}
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if dash && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			builder.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if builder.Len() == 0 {
		return "customer"
	}
	return builder.String()
}

// namer hands out unique slugs: acme, acme-2, acme-3.
type namer struct {
	seen map[string]int
}

func newNamer() *namer {
	return &namer{seen: map[string]int{}}
}

func (n *namer) next(name string) string {
	slug := Slug(name)
	candidate := slug
	for count := 2; n.seen[candidate] > 0; count++ {
		candidate = fmt.Sprintf("%s-%d", slug, count)
	}
	n.seen[candidate]++
	return candidate
}
