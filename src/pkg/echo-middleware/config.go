package echomw

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"invoice-reminder/src/pkg/config"
)

type Config struct {
	MiddlewareRateLimit int      `json:"middleware_rate_limit,omitempty"` // requests per second per client ip
	MiddlewareBurst     int      `json:"middleware_burst,omitempty"`
	LimiterIdleSeconds  int      `json:"limiter_idle_seconds,omitempty"` // forget a client after this long without requests
	QuietPaths          []string `json:"quiet_paths,omitempty"`          // logged at verbose level only
}

func DefaultValueConfig() Config {
	return Config{
		MiddlewareRateLimit: 10,
		MiddlewareBurst:     50,
		LimiterIdleSeconds:  60,
		QuietPaths:          []string{"/healthz"},
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig() // this one we use to access config values from anywhere

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "echo-middleware", "not provided", "default echo-middleware config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "echo-middleware", "provided", "local echo-middleware config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
