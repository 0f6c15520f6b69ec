// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds VisitDesk's settings. WAFFLE's CoreConfig covers the
// framework side (ports, TLS, log level, env); everything here is ours.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// View-state session cookie and CSRF protection
	SessionKey    string // signs the view-state cookie
	SessionName   string
	SessionDomain string // blank means current host
	CSRFKey       string // 32 bytes

	// Email/SMTP (blank host disables sending)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Site
	SiteName string
	BaseURL  string // used for badge links in emails
	PageSize int    // rows per page in the visits list

	// TimeZone decides where "today" starts and ends for the dashboard,
	// kiosk checks and the nightly check-out. "Local" uses the host zone.
	TimeZone string

	// AutoCheckOutSchedule is a five-field cron expression; blank disables
	// the nightly check-out.
	AutoCheckOutSchedule string

	// KioskDeviceID, when set, must accompany kiosk API calls.
	KioskDeviceID string
}
