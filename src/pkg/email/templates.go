package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// SendGridCatalog lists the account's dynamic templates.
type SendGridCatalog struct {
	APIKey string
	Host   string
}

func NewSendGridCatalog(apiKey string) *SendGridCatalog {
	return &SendGridCatalog{APIKey: apiKey, Host: Cfg.SendGridHost}
}

type sendGridTemplateVersion struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Active  int    `json:"active"`
}

type sendGridTemplate struct {
	ID       string                    `json:"id"`
	Name     string                    `json:"name"`
	Versions []sendGridTemplateVersion `json:"versions"`
}

// paged responses use "result", unpaged ones "templates"
type sendGridTemplateList struct {
	Result    []sendGridTemplate `json:"result"`
	Templates []sendGridTemplate `json:"templates"`
}

/*
Templates returns one entry per dynamic template: the label is the template
name and the subject context is the active version's subject (first
version when none is active).
*/
func (catalog *SendGridCatalog) Templates(ctx context.Context) (templates []Template, e *xerr.Error) {
	if catalog == nil || catalog.APIKey == "" {
		return nil, xerr.NewError(fmt.Errorf("no sendgrid api key"), "list sendgrid templates", nil)
	}

	request := sendgrid.GetRequest(catalog.APIKey, "/v3/templates", catalog.Host)
	request.Method = rest.Get
	request.QueryParams = map[string]string{"generations": "dynamic", "page_size": "200"}

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return nil, xerr.NewError(err, "list sendgrid templates", catalog.Host)
	}
	if response.StatusCode >= 300 {
		return nil, xerr.NewError(fmt.Errorf("sendgrid returned %d: %s", response.StatusCode, response.Body), "list sendgrid templates", catalog.Host)
	}

	return parseSendGridTemplates([]byte(response.Body))
}

func parseSendGridTemplates(body []byte) (templates []Template, e *xerr.Error) {
	var list sendGridTemplateList
	err := json.Unmarshal(body, &list)
	if err != nil {
		return nil, xerr.NewError(err, "decode sendgrid templates", len(body))
	}

	found := list.Result
	if len(found) == 0 {
		found = list.Templates
	}

	templates = make([]Template, 0, len(found))
	for _, template := range found {
		descriptor := Template{ID: template.ID, Label: template.Name}
		if version := activeVersion(template.Versions); version != nil {
			descriptor.SubjectContext = version.Subject
		}
		templates = append(templates, descriptor)
	}

	tl.Log(tl.Info1, palette.Cyan, "Found %s sendgrid dynamic templates", len(templates))
	return templates, nil
}

func activeVersion(versions []sendGridTemplateVersion) *sendGridTemplateVersion {
	for index := range versions {
		if versions[index].Active == 1 {
			return &versions[index]
		}
	}
	if len(versions) > 0 {
		return &versions[0]
	}
	return nil
}
