package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"webcat-submit/internal/components/configutil"
	"webcat-submit/internal/notify"
	"webcat-submit/internal/scrapers/webcat"
	"webcat-submit/internal/state"
	"webcat-submit/pkg/osutil"

	"dario.cat/mergo"
)

const configName = "webcat.json5"

type HttpConfig struct {
	TimeoutSeconds   int    `json:"timeout_seconds"`
	UserAgent        string `json:"user_agent"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	// RequestsPerSecond defaults to 4, a negative value disables the limit.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type Config struct {
	// SubmitUrls serve the submission targets xml, usually one per course.
	SubmitUrls []string      `json:"submit_urls"`
	State      state.Config  `json:"state"`
	Http       HttpConfig    `json:"http"`
	Notify     notify.Config `json:"notify"`
	// Timezone is an IANA zone used when showing times, empty is local.
	Timezone string `json:"timezone"`
	// ReportDir receives the rendered html reports, "-" disables them.
	ReportDir string `json:"report_dir"`
}

var defaultConfig = Config{
	State: state.Config{
		File: osutil.StateDirPlaceholder + "/state.db",
	},
	Http: HttpConfig{
		TimeoutSeconds:    30,
		RequestsPerSecond: 4,
	},
	ReportDir: osutil.StateDirPlaceholder + "/reports",
}

func (c Config) ClientOptions() webcat.ClientOptions {
	return webcat.ClientOptions{
		Timeout:           time.Duration(c.Http.TimeoutSeconds) * time.Second,
		UserAgent:         c.Http.UserAgent,
		CloudflareBypass:  c.Http.CloudflareBypass,
		RequestsPerSecond: c.Http.RequestsPerSecond,
	}
}

// LoadConfig reads the config at path, or the nearest webcat.json5 when path
// is empty. A missing nearest config is not an error, the defaults fill in
// every field the file leaves out.
func LoadConfig(path string) (Config, error) {
	var config Config
	var err error
	if path != "" {
		config, err = configutil.ReadConfig[Config](path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		config, err = configutil.ReadRecursively[Config](configName)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", configName, err)
		}
	}

	err = mergo.Merge(&config, defaultConfig)
	if err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if config.State.Url == "" {
		config.State.File, err = osutil.ResolvePath(config.State.File)
		if err != nil {
			return Config{}, fmt.Errorf("config: state file: %w", err)
		}
	}
	if config.ReportDir == "-" {
		config.ReportDir = ""
	} else {
		config.ReportDir, err = osutil.ResolvePath(config.ReportDir)
		if err != nil {
			return Config{}, fmt.Errorf("config: report dir: %w", err)
		}
	}

	return config, nil
}
