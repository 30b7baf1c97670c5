package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"mercator-hq/devserver/pkg/config"
	"mercator-hq/devserver/pkg/pipeline"
)

// Options configure one server start. They are captured by Start and
// reused unchanged by every restart cycle.
type Options struct {
	// Host is the interface to bind. Empty binds every interface and is
	// displayed as "localhost".
	Host string

	// Port to bind. Zero picks a free port.
	Port int

	UseTLS      bool
	TLSKeyPath  string
	TLSCertPath string

	// RootURL takes precedence over BaseURL. Both are normalized with
	// NormalizeBaseURL.
	RootURL string
	BaseURL string

	// ServerModuleRoot is the directory holding the optional custom server
	// module.
	ServerModuleRoot string

	// Addons contribute middleware in order after the custom server module.
	Addons []pipeline.Addon

	// Notifier receives human-readable status lines. Nil writes them to the
	// manager's logger.
	Notifier Notifier

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// OptionsFromConfig maps the server, tls and watch configuration sections
// onto start options. Addons and Notifier are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		UseTLS:            cfg.TLS.Enabled,
		TLSKeyPath:        cfg.TLS.KeyFile,
		TLSCertPath:       cfg.TLS.CertFile,
		RootURL:           cfg.Server.RootURL,
		BaseURL:           cfg.Server.BaseURL,
		ServerModuleRoot:  cfg.Server.ServerModuleRoot,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// NormalizeBaseURL returns u with exactly one leading and one trailing
// slash. The empty string normalizes to "/".
func NormalizeBaseURL(u string) string {
	trimmed := strings.Trim(u, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed + "/"
}

// BasePath is the normalized root URL, falling back to BaseURL.
func (o Options) BasePath() string {
	if o.RootURL != "" {
		return NormalizeBaseURL(o.RootURL)
	}
	return NormalizeBaseURL(o.BaseURL)
}

// Scheme is "https" when TLS is enabled, "http" otherwise.
func (o Options) Scheme() string {
	if o.UseTLS {
		return "https"
	}
	return "http"
}

// DisplayHost is the host shown to users.
func (o Options) DisplayHost() string {
	if o.Host == "" {
		return "localhost"
	}
	return o.Host
}

// DisplayURL is the URL users open for a server listening on port.
func (o Options) DisplayURL(port int) string {
	host := o.DisplayHost()
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("%s://%s:%d%s", o.Scheme(), host, port, o.BasePath())
}

// Addr is the address passed to net.Listen.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Settings is the view of the options handed to modules and addons.
func (o Options) Settings() pipeline.Settings {
	return pipeline.Settings{
		Host:             o.Host,
		Port:             o.Port,
		UseTLS:           o.UseTLS,
		RootURL:          o.BasePath(),
		ServerModuleRoot: o.ServerModuleRoot,
	}
}
