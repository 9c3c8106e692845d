package extension

// Config holds the dues extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.dues" or "dues" keys).
type Config struct {
	// DisableAPI skips providing the HTTP server in the DI container.
	DisableAPI bool `json:"disable_api" mapstructure:"disable_api" yaml:"disable_api"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for dues routes (default: "/dues").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// SocietyID scopes every invoice, notice and resident (default: "default").
	SocietyID string `json:"society_id" mapstructure:"society_id" yaml:"society_id"`

	// Society identity printed on demand letters.
	SocietyName         string `json:"society_name" mapstructure:"society_name" yaml:"society_name"`
	SocietyAddress      string `json:"society_address" mapstructure:"society_address" yaml:"society_address"`
	SocietyRegistration string `json:"society_registration" mapstructure:"society_registration" yaml:"society_registration"`

	// Currency is the billing currency (default: "inr").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// WebhookURL, when set, delivers reminders and notices through a
	// notification gateway instead of the log dispatcher.
	WebhookURL    string `json:"webhook_url" mapstructure:"webhook_url" yaml:"webhook_url"`
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret" yaml:"webhook_secret"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/dues",
		SocietyID:   "default",
		SocietyName: "Housing Society",
		Currency:    "inr",
	}
}
