/*
Load ./cfg/config.json and hand each package its own section.

Every package owns a Config struct with json tags, DefaultValueConfig() and
InitializeConfig(*Config). Entrypoints read the file once and pass sections:

	config.InitializeConfig(*configPath)
	echomw.InitializeConfig(config.Section[echomw.Config]("echo_middleware"))
*/
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

var loaded *viper.Viper

/*
InitializeConfig reads the JSON configuration file at configPath.

A missing file is not fatal: every package keeps its default config.
A file that exists but can't be parsed stops the program.
*/
func InitializeConfig(configPath string) {
	e := Load(configPath)
	e.QuitIf(xerr.ErrorTypeError)
}

// Load is InitializeConfig without the exit, for tests and long running processes.
func Load(configPath string) (e *xerr.Error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	_, statErr := os.Stat(configPath)
	if os.IsNotExist(statErr) {
		tl.Log(tl.Warning, palette.Yellow, "Config file '%s' %s, using %s", configPath, "does not exist", "default values")
		loaded = v
		return nil
	}

	readErr := v.ReadInConfig()
	if readErr != nil {
		e = xerr.NewError(readErr, "Unable to read config file", configPath)
		return e
	}

	loaded = v
	tl.Log(tl.Info, palette.Green, "Loaded config file '%s' with %s sections", configPath, len(v.AllSettings()))
	return nil
}

/*
Section decodes the section named key into a new T.
Returns nil when no file was loaded or the section is absent,
which makes the package's InitializeConfig keep its defaults.
*/
func Section[T any](key string) *T {
	if loaded == nil || !loaded.IsSet(key) {
		return nil
	}

	raw, marshalErr := json.Marshal(loaded.Get(key))
	if marshalErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to encode config section '%s': %s", key, marshalErr)
		return nil
	}

	var section T
	unmarshalErr := json.Unmarshal(raw, &section)
	if unmarshalErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Config section '%s' is %s: %s", key, "malformed", unmarshalErr)
		return nil
	}
	return &section
}

/*
CheckIfEnvVarsPresent warns about every listed variable that is unset or empty.
It doesn't exit: callers list credentials for several providers and only one
of them is usually configured.
*/
func CheckIfEnvVarsPresent(names ...string) (missing []string) {
	for _, name := range names {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
			tl.Log(tl.Warning1, palette.Yellow, "Environment variable %s is %s", name, "not set")
		}
	}
	return missing
}

// GetPackageName returns the directory name of the calling package ("ingest", "echo-middleware").
func GetPackageName() string {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	return filepath.Base(filepath.Dir(file))
}
