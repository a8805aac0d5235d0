package reminder

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"invoice-reminder/src/pkg/config"
)

type Config struct {
	Brand           string `json:"brand,omitempty"`
	Department      string `json:"department,omitempty"`
	CurrencySymbol  string `json:"currency_symbol,omitempty"`
	SubjectContext  string `json:"subject_context,omitempty"`
	TemplateID      string `json:"template_id,omitempty"`      // provider dynamic template, empty sends our own bodies
	SubjectTemplate string `json:"subject_template,omitempty"` // may contain {{Tokens}}
	BodyTemplate    string `json:"body_template,omitempty"`    // may contain {{Tokens}}
	PrimaryColor    string `json:"primary_color,omitempty"`
	AccentColor     string `json:"accent_color,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Brand:          "",
		Department:     "Accounts Receivable",
		CurrencySymbol: "$",
		SubjectContext: DefaultSubjectContext,
		PrimaryColor:   "#0f172a",
		AccentColor:    "#0ea5e9",
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "reminder", "not provided", "default reminder config")
		return
	}

	defaultConfig := DefaultValueConfig()
	Cfg = *localConfig

	tl.ApplyDefaults(&Cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "reminder", "provided", "local reminder config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}

// PolicyFromConfig turns the loaded configuration into a Policy.
func PolicyFromConfig() Policy {
	return Policy{
		Brand:           Cfg.Brand,
		Department:      Cfg.Department,
		CurrencySymbol:  Cfg.CurrencySymbol,
		SubjectContext:  Cfg.SubjectContext,
		TemplateID:      Cfg.TemplateID,
		SubjectTemplate: Cfg.SubjectTemplate,
		BodyTemplate:    Cfg.BodyTemplate,
		PrimaryColor:    Cfg.PrimaryColor,
		AccentColor:     Cfg.AccentColor,
	}
}
