package server

import (
	"fmt"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"invoice-reminder/src/pkg/config"
)

type Config struct {
	Address                string `json:"address,omitempty"`
	Port                   int    `json:"port,omitempty"`
	MaxUploadMB            int    `json:"max_upload_mb,omitempty"`
	MaxSessions            int    `json:"max_sessions,omitempty"`
	SendTimeoutSeconds     int    `json:"send_timeout_seconds,omitempty"` // whole batch, not one message
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds,omitempty"`
	StaticDir              string `json:"static_dir,omitempty"` // browser ui build, not served when empty
}

func DefaultValueConfig() Config {
	return Config{
		Address:                "127.0.0.1",
		Port:                   8401,
		MaxUploadMB:            20,
		MaxSessions:            32,
		SendTimeoutSeconds:     600,
		ShutdownTimeoutSeconds: 10,
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
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "server", "not provided", "default server config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "server", "provided", "local server config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}

func ListenAddress() string {
	return fmt.Sprintf("%s:%d", Cfg.Address, Cfg.Port)
}

func SendTimeout() time.Duration {
	return time.Duration(Cfg.SendTimeoutSeconds) * time.Second
}

func ShutdownTimeout() time.Duration {
	return time.Duration(Cfg.ShutdownTimeoutSeconds) * time.Second
}
