// Package config loads request defaults for an httprequest.Client from a
// YAML, JSON or TOML file, with environment variable overrides.
//
// Pattern keyed settings (log levels, replacements, handlers) are lists of
// key/value rules rather than maps: file keys are case-insensitive and
// unordered, while pattern maps are ordered and case-sensitive.
//
// Example file:
//
//	address: https://api.chayns.net/v2/##siteId##
//	use_chayns_auth: true
//	response_type: json
//	throw_except: ["404"]
//	log_config:
//	  - key: "/^5\\d{2}$/"
//	    level: critical
//	  - key: "404"
//	    level: none
//	replacements:
//	  - key: "{tapp}"
//	    value: "##tappId##"
//	env:
//	  site_id: 60021-08989
//	  tapp_id: 250357
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/chincoe/chayns-helper-sub000/host"
	"github.com/chincoe/chayns-helper-sub000/httprequest"
)

// DefaultEnvPrefix prefixes environment overrides, e.g.
// CHAYNS_HELPER_ADDRESS or CHAYNS_HELPER_ENV_SITE_ID.
const DefaultEnvPrefix = "CHAYNS_HELPER"

var (
	// ErrInvalidLogLevel is returned for unknown log_config levels.
	ErrInvalidLogLevel = errors.New("config: invalid log level")

	// ErrInvalidHandler is returned for handler rules without a valid response type.
	ErrInvalidHandler = errors.New("config: invalid handler rule")
)

// File is the decoded configuration file.
type File struct {
	Address       string            `mapstructure:"address"`
	Method        string            `mapstructure:"method"`
	Headers       map[string]string `mapstructure:"headers"`
	UseChaynsAuth *bool             `mapstructure:"use_chayns_auth"`

	ResponseType     string         `mapstructure:"response_type"`
	ThrowErrors      *bool          `mapstructure:"throw_errors"`
	ThrowExcept      []string       `mapstructure:"throw_except"`
	AutoRefreshToken *bool          `mapstructure:"auto_refresh_token"`
	StringifyBody    *bool          `mapstructure:"stringify_body"`
	LogConfig        []LogRule      `mapstructure:"log_config"`
	Replacements     []Replacement  `mapstructure:"replacements"`
	StatusHandlers   []HandlerRule  `mapstructure:"status_handlers"`
	ErrorHandlers    []HandlerRule  `mapstructure:"error_handlers"`
	ErrorDialogs     []string       `mapstructure:"error_dialogs"`
	Serialization    *Serialization `mapstructure:"serialization"`
	WaitCursor       *WaitCursor    `mapstructure:"wait_cursor"`

	Client Client   `mapstructure:"client"`
	Env    host.Env `mapstructure:"env"`
}

// LogRule sets the log level for a status or error code pattern.
type LogRule struct {
	Key   string `mapstructure:"key"`
	Level string `mapstructure:"level"`
}

// Replacement rewrites the request URL.
type Replacement struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

// HandlerRule decodes responses matching Key with ResponseType.
type HandlerRule struct {
	Key          string `mapstructure:"key"`
	ResponseType string `mapstructure:"response_type"`
}

// Serialization mirrors httprequest.SerializationOptions. TimeZone is an
// IANA name such as "Europe/Berlin".
type Serialization struct {
	ExcludeKeys []string `mapstructure:"exclude_keys"`
	ExcludeNull bool     `mapstructure:"exclude_null"`
	TimeZone    string   `mapstructure:"time_zone"`
	DateLayout  string   `mapstructure:"date_layout"`
}

// WaitCursor mirrors httprequest.WaitCursorConfig without steps.
type WaitCursor struct {
	Delay time.Duration `mapstructure:"delay"`
	Text  string        `mapstructure:"text"`
}

// Client holds client-level settings.
type Client struct {
	ServiceName  string        `mapstructure:"service_name"`
	Debug        bool          `mapstructure:"debug"`
	GenerateCurl bool          `mapstructure:"generate_curl"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    RateLimit     `mapstructure:"rate_limit"`
}

// RateLimit mirrors httprequest.RateLimitConfig. Zero disables limiting.
type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	WaitOnLimit       bool    `mapstructure:"wait_on_limit"`
	PerHost           bool    `mapstructure:"per_host"`
}

// Option configures the underlying viper instance.
type Option func(*viper.Viper)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(v *viper.Viper) {
		v.SetEnvPrefix(prefix)
	}
}

// WithOverrides sets values that win over the file and the environment.
func WithOverrides(values map[string]any) Option {
	return func(v *viper.Viper) {
		for k, val := range values {
			v.Set(k, val)
		}
	}
}

// envKeys are the scalar keys that can be overridden from the environment.
var envKeys = []string{
	"address", "method", "use_chayns_auth", "response_type", "throw_errors",
	"auto_refresh_token", "stringify_body",
	"client.service_name", "client.debug", "client.generate_curl", "client.timeout",
	"client.rate_limit.requests_per_second", "client.rate_limit.burst", "client.rate_limit.wait_on_limit", "client.rate_limit.per_host",
	"env.site_id", "env.tapp_id", "env.location_id", "env.person_id", "env.user_id", "env.language",
}

func newViper(path string, opts ...Option) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		opt(v)
	}
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

func decode(v *viper.Viper) (*File, error) {
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", v.ConfigFileUsed(), err)
	}
	return &f, nil
}

// Load reads the file at path.
func Load(path string, opts ...Option) (*File, error) {
	v := newViper(path, opts...)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return decode(v)
}

// Defaults converts the file into client defaults.
func (f *File) Defaults() (httprequest.Defaults, error) {
	d := httprequest.Defaults{Address: f.Address}

	d.Config = httprequest.Config{
		Method:        f.Method,
		UseChaynsAuth: f.UseChaynsAuth,
	}
	if len(f.Headers) > 0 {
		d.Config.Headers = make(http.Header, len(f.Headers))
		for k, val := range f.Headers {
			d.Config.Headers.Set(k, val)
		}
	}

	opts, err := f.options()
	if err != nil {
		return httprequest.Defaults{}, err
	}
	d.Options = opts

	return d, nil
}

func (f *File) options() (httprequest.Options, error) {
	opts := httprequest.Options{
		ResponseType:     httprequest.ResponseType(f.ResponseType),
		AutoRefreshToken: f.AutoRefreshToken,
		StringifyBody:    f.StringifyBody,
	}
	if !opts.ResponseType.Valid() {
		return opts, fmt.Errorf("config: %w: %q", httprequest.ErrInvalidResponseType, f.ResponseType)
	}

	switch {
	case len(f.ThrowExcept) > 0:
		opts.ThrowErrors = httprequest.ThrowExceptPatterns(f.ThrowExcept...)
	case f.ThrowErrors != nil && !*f.ThrowErrors:
		opts.ThrowErrors = httprequest.ThrowNone()
	}

	if len(f.LogConfig) > 0 {
		opts.LogConfig = httprequest.NewPatternMap[httprequest.LogLevel]()
		for _, r := range f.LogConfig {
			lvl := httprequest.LogLevel(r.Level)
			switch lvl {
			case httprequest.LogLevelInfo, httprequest.LogLevelWarning, httprequest.LogLevelError,
				httprequest.LogLevelCritical, httprequest.LogLevelNone:
			default:
				return opts, fmt.Errorf("%w: %q for key %s", ErrInvalidLogLevel, r.Level, r.Key)
			}
			opts.LogConfig.Set(r.Key, lvl)
		}
	}

	if len(f.Replacements) > 0 {
		opts.Replacements = httprequest.NewPatternMap[string]()
		for _, r := range f.Replacements {
			opts.Replacements.Set(r.Key, r.Value)
		}
	}

	var err error
	if opts.StatusHandlers, err = handlerMap(f.StatusHandlers); err != nil {
		return opts, err
	}
	if opts.ErrorHandlers, err = handlerMap(f.ErrorHandlers); err != nil {
		return opts, err
	}

	if len(f.ErrorDialogs) > 0 {
		opts.ErrorDialogs = httprequest.NewPatternMap[bool]()
		for _, code := range f.ErrorDialogs {
			opts.ErrorDialogs.Set(code, true)
		}
	}

	if s := f.Serialization; s != nil {
		so := &httprequest.SerializationOptions{
			ExcludeKeys: s.ExcludeKeys,
			ExcludeNull: s.ExcludeNull,
			DateLayout:  s.DateLayout,
		}
		if s.TimeZone != "" {
			loc, err := time.LoadLocation(s.TimeZone)
			if err != nil {
				return opts, fmt.Errorf("config: time zone %q: %w", s.TimeZone, err)
			}
			so.Location = loc
		}
		opts.Serialization = so
	}

	if wc := f.WaitCursor; wc != nil {
		opts.WaitCursor = &httprequest.WaitCursorConfig{Delay: wc.Delay, Text: wc.Text}
	}

	return opts, nil
}

func handlerMap(rules []HandlerRule) (*httprequest.PatternMap[httprequest.Handler], error) {
	if len(rules) == 0 {
		return nil, nil
	}
	m := httprequest.NewPatternMap[httprequest.Handler]()
	for _, r := range rules {
		rt := httprequest.ResponseType(r.ResponseType)
		if rt == "" || !rt.Valid() {
			return nil, fmt.Errorf("%w: %q for key %s", ErrInvalidHandler, r.ResponseType, r.Key)
		}
		m.Set(r.Key, httprequest.Decode(rt))
	}
	return m, nil
}

// ClientOptions returns the httprequest options for the file: defaults and
// client-level settings.
func (f *File) ClientOptions() ([]httprequest.Option, error) {
	d, err := f.Defaults()
	if err != nil {
		return nil, err
	}

	opts := []httprequest.Option{
		httprequest.WithDefaults(d),
		httprequest.WithDebug(f.Client.Debug),
		httprequest.WithGenerateCurl(f.Client.GenerateCurl),
	}
	if f.Client.ServiceName != "" {
		opts = append(opts, httprequest.WithServiceName(f.Client.ServiceName))
	}
	if f.Client.Timeout > 0 {
		tc := httprequest.DefaultTransportConfig()
		tc.Timeout = f.Client.Timeout
		opts = append(opts, httprequest.WithTransportConfig(tc))
	}
	if rl := f.Client.RateLimit; rl.RequestsPerSecond > 0 {
		opts = append(opts, httprequest.WithRateLimit(httprequest.RateLimitConfig{
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.Burst,
			WaitOnLimit:       rl.WaitOnLimit,
			PerHost:           rl.PerHost,
		}))
	}
	return opts, nil
}

// Watcher keeps a client's defaults in sync with a configuration file.
type Watcher struct {
	v      *viper.Viper
	client *httprequest.Client
	logger zerolog.Logger

	mu       sync.Mutex
	current  *File
	debounce *time.Timer
}

// Watch loads path, applies its defaults to client and re-applies them
// whenever the file changes. Files that fail to load or convert are logged
// and ignored; the previous defaults stay in place.
func Watch(path string, client *httprequest.Client, logger zerolog.Logger, opts ...Option) (*Watcher, error) {
	v := newViper(path, opts...)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	w := &Watcher{v: v, client: client, logger: logger}
	if err := w.apply(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.debounce = time.AfterFunc(100*time.Millisecond, w.reload)
	})
	v.WatchConfig()

	return w, nil
}

// File returns the configuration currently applied.
func (w *Watcher) File() *File {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) reload() {
	if err := w.v.ReadInConfig(); err != nil {
		w.logger.Warn().Err(err).Str("file", w.v.ConfigFileUsed()).Msg("config reload failed")
		return
	}
	if err := w.apply(); err != nil {
		w.logger.Warn().Err(err).Str("file", w.v.ConfigFileUsed()).Msg("config reload failed")
		return
	}
	w.logger.Info().Str("file", w.v.ConfigFileUsed()).Msg("request defaults reloaded")
}

func (w *Watcher) apply() error {
	f, err := decode(w.v)
	if err != nil {
		return err
	}
	d, err := f.Defaults()
	if err != nil {
		return err
	}

	w.client.SetDefaults(d.Address, d.Config, d.Options)

	w.mu.Lock()
	w.current = f
	w.mu.Unlock()
	return nil
}
