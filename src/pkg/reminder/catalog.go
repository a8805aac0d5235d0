package reminder

import (
	"context"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/email"
)

// Catalog lists the templates an operator can choose from.
type Catalog interface {
	Templates(ctx context.Context) (templates []email.Template, e *xerr.Error)
}

// DefaultTemplates are rendered locally and need no provider account.
func DefaultTemplates() []email.Template {
	return []email.Template{
		{ID: "builtin-overdue", Label: "Overdue invoices", SubjectContext: DefaultSubjectContext, Builtin: true},
		{ID: "builtin-final-notice", Label: "Final notice", SubjectContext: "Final Notice - Overdue Invoices", Builtin: true},
		{ID: "builtin-statement", Label: "Account statement", SubjectContext: "Account Statement", Builtin: true},
	}
}

/*
ResolveTemplates asks the catalog for templates and falls back to
DefaultTemplates when there is no catalog, it fails, or it returns nothing.
It never fails itself.
*/
func ResolveTemplates(ctx context.Context, catalog Catalog) []email.Template {
	if catalog == nil {
		return DefaultTemplates()
	}

	templates, e := catalog.Templates(ctx)
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Template catalog is %s, using %s: %v", "unavailable", "built-in templates", e)
		return DefaultTemplates()
	}
	if len(templates) == 0 {
		tl.Log(tl.Info1, palette.Purple, "Template catalog is %s, using %s", "empty", "built-in templates")
		return DefaultTemplates()
	}
	return templates
}

/*
PolicyFor applies the template with the given id to base.

Provider templates set TemplateID, built-in ones clear it so our own bodies
are sent. An unknown id returns base unchanged.
*/
func PolicyFor(templates []email.Template, id string, base Policy) Policy {
	if id == "" {
		return base
	}
	for _, template := range templates {
		if template.ID != id {
			continue
		}
		if template.SubjectContext != "" {
			base.SubjectContext = template.SubjectContext
		}
		if template.Builtin {
			base.TemplateID = ""
		} else {
			base.TemplateID = template.ID
		}
		return base
	}
	return base
}
