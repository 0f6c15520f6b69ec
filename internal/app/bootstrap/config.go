// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/visitdesk/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are read from config files (mongo_uri), VISITDESK_*
// environment variables (VISITDESK_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "visitdesk", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "View-state cookie signing key (must be strong in production)"},
	{Name: "session_name", Default: "visitdesk-view", Desc: "View-state cookie name"},
	{Name: "session_domain", Default: "", Desc: "Cookie domain (blank means current host)"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-0123456789ABCD", Desc: "32-byte CSRF authentication key"},

	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables visitor emails)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@visitdesk.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "VisitDesk", Desc: "From display name"},

	{Name: "site_name", Default: "VisitDesk", Desc: "Name shown in emails and badges"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for links in emails"},
	{Name: "page_size", Default: 50, Desc: "Rows per page in the visits list"},

	{Name: "time_zone", Default: "Local", Desc: "IANA zone that defines today's boundaries (e.g., America/Chicago)"},
	{Name: "auto_checkout_schedule", Default: workers.DefaultAutoCheckOutSchedule, Desc: "Cron schedule for the nightly auto check-out (blank disables)"},
	{Name: "kiosk_device_id", Default: "", Desc: "Device id kiosks must send (blank accepts any)"},
}

// LoadConfig loads WAFFLE core config and VisitDesk's app config.
// Precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, "VISITDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         v.String("mongo_uri"),
		MongoDatabase:    v.String("mongo_database"),
		MongoMaxPoolSize: uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(v.Int("mongo_min_pool_size")),

		SessionKey:    v.String("session_key"),
		SessionName:   v.String("session_name"),
		SessionDomain: v.String("session_domain"),
		CSRFKey:       v.String("csrf_key"),

		MailSMTPHost: v.String("mail_smtp_host"),
		MailSMTPPort: v.Int("mail_smtp_port"),
		MailSMTPUser: v.String("mail_smtp_user"),
		MailSMTPPass: v.String("mail_smtp_pass"),
		MailFrom:     v.String("mail_from"),
		MailFromName: v.String("mail_from_name"),

		SiteName: v.String("site_name"),
		BaseURL:  v.String("base_url"),
		PageSize: v.Int("page_size"),

		TimeZone:             v.String("time_zone"),
		AutoCheckOutSchedule: v.String("auto_checkout_schedule"),
		KioskDeviceID:        v.String("kiosk_device_id"),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig rejects settings that would only fail later: a malformed
// Mongo URI, an unknown time zone, a bad cron expression, or a CSRF key of
// the wrong length.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if _, err := appCfg.location(); err != nil {
		return err
	}
	if appCfg.AutoCheckOutSchedule != "" {
		if err := workers.ValidateSchedule(appCfg.AutoCheckOutSchedule); err != nil {
			return err
		}
	}
	if n := len(appCfg.CSRFKey); n != 32 {
		return fmt.Errorf("csrf_key must be 32 bytes, got %d", n)
	}
	if appCfg.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", appCfg.PageSize)
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		logger.Warn("session_key still has its development default")
	}
	return nil
}

// location resolves TimeZone.
func (c AppConfig) location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
