package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides are the DOMLOKIT_* variables. Unset variables leave the file
// value alone.
type envOverrides struct {
	TargetLang    string        `env:"DOMLOKIT_TARGET_LANG"`
	StartupDelay  time.Duration `env:"DOMLOKIT_STARTUP_DELAY"`
	Debounce      time.Duration `env:"DOMLOKIT_DEBOUNCE"`
	BrowserRemote string        `env:"DOMLOKIT_BROWSER_REMOTE"`
	ProxyListen   string        `env:"DOMLOKIT_PROXY_LISTEN"`
	ProxyUpstream string        `env:"DOMLOKIT_PROXY_UPSTREAM"`
	LogLevel      string        `env:"DOMLOKIT_LOG_LEVEL"`
	LogFormat     string        `env:"DOMLOKIT_LOG_FORMAT"`
}

// applyEnv overlays the environment onto f. A nil environ reads the process
// environment.
func (f *File) applyEnv(environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&f.TargetLang, o.TargetLang)
	setString(&f.Browser.Remote, o.BrowserRemote)
	setString(&f.Proxy.Listen, o.ProxyListen)
	setString(&f.Proxy.Upstream, o.ProxyUpstream)
	setString(&f.Log.Level, o.LogLevel)
	setString(&f.Log.Format, o.LogFormat)
	if o.StartupDelay != 0 {
		f.Timing.StartupDelay = o.StartupDelay
	}
	if o.Debounce != 0 {
		f.Timing.Debounce = o.Debounce
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
