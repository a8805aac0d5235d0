package email

import (
	"fmt"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"invoice-reminder/src/pkg/config"
)

type Config struct {
	Provider              string `json:"provider,omitempty"`
	From                  string `json:"from,omitempty"`
	ReplyTo               string `json:"reply_to,omitempty"`
	DispatchIntervalMs    int    `json:"dispatch_interval_ms,omitempty"` // pause between two sends
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
	LogoURL               string `json:"logo_url,omitempty"`
	LogoMaxWidth          int    `json:"logo_max_width,omitempty"`
	SendGridHost          string `json:"sendgrid_host,omitempty"`
	MailgunAPIBase        string `json:"mailgun_api_base,omitempty"`
	SMTPPort              int    `json:"smtp_port,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Provider:              string(ProviderSendGrid),
		DispatchIntervalMs:    150,
		RequestTimeoutSeconds: 20,
		LogoMaxWidth:          240,
		SendGridHost:          "https://api.sendgrid.com",
		SMTPPort:              587,
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
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "email", "not provided", "default email config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "email", "provided", "local email config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}

// DispatchInterval is Cfg.DispatchIntervalMs as a duration.
func DispatchInterval() time.Duration {
	return time.Duration(Cfg.DispatchIntervalMs) * time.Millisecond
}

// RequestTimeout is Cfg.RequestTimeoutSeconds as a duration.
func RequestTimeout() time.Duration {
	return time.Duration(Cfg.RequestTimeoutSeconds) * time.Second
}
