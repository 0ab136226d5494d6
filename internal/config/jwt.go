package config

import "fmt"

// minSecretLength guards against trivially guessable HMAC secrets
const minSecretLength = 16

// AuthConfig configures verification of bearer tokens issued by the external
// authentication service. This service never issues tokens.
type AuthConfig struct {
	// Required rejects requests without a valid token; otherwise tokens are optional
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Secret   string `json:"secret,omitempty" yaml:"secret,omitempty"`
	Issuer   string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	// WebhookSecret is the shared secret the voice provider sends with call events
	WebhookSecret string `json:"webhook_secret,omitempty" yaml:"webhook_secret,omitempty"`
}

// Enabled reports whether tokens can be verified
func (c AuthConfig) Enabled() bool {
	return c.Secret != ""
}

func (c *AuthConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		c.Secret = v
	}
	if v, ok := lookup("JWT_ISSUER"); ok && v != "" {
		c.Issuer = v
	}
	if v, ok := lookup("CALL_WEBHOOK_SECRET"); ok && v != "" {
		c.WebhookSecret = v
	}
	if v, ok := lookup("AUTH_REQUIRED"); ok && v != "" {
		switch v {
		case "1", "true", "TRUE", "yes":
			c.Required = true
		case "0", "false", "FALSE", "no":
			c.Required = false
		default:
			return fmt.Errorf("invalid AUTH_REQUIRED: %q", v)
		}
	}
	return nil
}

// validate checks the auth section
func (c *AuthConfig) validate() error {
	if c.Required && c.Secret == "" {
		return fmt.Errorf("config error: JWT_SECRET is required when auth is required")
	}
	if c.Secret != "" && len(c.Secret) < minSecretLength {
		return fmt.Errorf("config error: JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.Required && c.WebhookSecret == "" {
		return fmt.Errorf("config error: CALL_WEBHOOK_SECRET is required when auth is required")
	}
	if c.WebhookSecret != "" && len(c.WebhookSecret) < minSecretLength {
		return fmt.Errorf("config error: CALL_WEBHOOK_SECRET must be at least %d characters", minSecretLength)
	}
	return nil
}
