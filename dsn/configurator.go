package dsn

import (
	"fmt"
	"strings"

	"github.com/ptgott/mailerdsn/mailer"
	"github.com/rs/zerolog/log"
)

// Schemes accepted by Configure
const (
	SchemeMail     string = "mail"
	SchemeSendmail string = "sendmail"
	SchemeQmail    string = "qmail"
	SchemeSMTP     string = "smtp"
	SchemeSMTPS    string = "smtps"
)

// DefaultSecurePort is the port an smtps DSN uses when it doesn't name one
const DefaultSecurePort int = 587

var allowedSchemes = []string{
	SchemeMail,
	SchemeSendmail,
	SchemeQmail,
	SchemeSMTP,
	SchemeSMTPS,
}

// reserved fields are set from the scheme and authority only
var reserved = map[string]struct{}{
	"Mailer":    {},
	"SMTPAuth":  {},
	"Username":  {},
	"Password":  {},
	"Hostname":  {},
	"Port":      {},
	"ErrorInfo": {},
}

// AllowedSchemes returns the schemes Configure accepts, in the order used
// by error messages.
func AllowedSchemes() []string {
	s := make([]string, len(allowedSchemes))
	copy(s, allowedSchemes)
	return s
}

// Configurator applies DSNs to mailers. It holds the option allow-list,
// which is computed once from the mailer field registry. A Configurator
// never retains a mailer and can be shared between goroutines, but a
// single mailer must not be configured concurrently.
type Configurator struct {
	allowed    []string
	allowedSet map[string]struct{}
}

// NewConfigurator builds a Configurator
func NewConfigurator() *Configurator {
	c := &Configurator{
		allowedSet: make(map[string]struct{}),
	}
	for _, f := range mailer.Fields() {
		if _, ok := reserved[f.Name]; ok {
			continue
		}
		c.allowed = append(c.allowed, f.Name)
		c.allowedSet[f.Name] = struct{}{}
	}
	return c
}

var std = NewConfigurator()

// Configure applies dsn to m using a shared Configurator
func Configure(m *mailer.Mailer, dsn string) (*mailer.Mailer, error) {
	return std.Configure(m, dsn)
}

// NewMailer returns a new mailer.Mailer configured with dsn
func NewMailer(dsn string) (*mailer.Mailer, error) {
	return std.Configure(mailer.New(), dsn)
}

// AllowedOptions returns the query parameter names Configure accepts, in
// mailer field order.
func (c *Configurator) AllowedOptions() []string {
	a := make([]string, len(c.allowed))
	copy(a, c.allowed)
	return a
}

// Configure parses dsn and applies it to m, returning m. On error it
// returns nil and m may already be partly configured.
func (c *Configurator) Configure(m *mailer.Mailer, dsn string) (*mailer.Mailer, error) {
	cfg, err := Parse(dsn)
	if err != nil {
		return nil, err
	}

	if err := c.apply(m, cfg); err != nil {
		return nil, err
	}

	return m, nil
}

func (c *Configurator) apply(m *mailer.Mailer, cfg Config) error {
	switch cfg.Scheme {
	case SchemeMail:
		m.IsMail()
	case SchemeSendmail:
		m.IsSendmail()
	case SchemeQmail:
		m.IsQmail()
	case SchemeSMTP, SchemeSMTPS:
		m.IsSMTP()
		configureSMTP(m, cfg)
	default:
		return fmt.Errorf(
			`%w: "%s". Allowed values: "%s".`,
			ErrInvalidScheme,
			cfg.Scheme,
			strings.Join(allowedSchemes, `", "`),
		)
	}

	log.Debug().
		Str("scheme", cfg.Scheme).
		Str("transport", m.Transport).
		Msg("selected the mail transport")

	if len(cfg.Query) > 0 {
		return c.configureOptions(m, cfg.Query)
	}
	return nil
}

func configureSMTP(m *mailer.Mailer, cfg Config) {
	smtps := cfg.Scheme == SchemeSMTPS

	if smtps {
		m.SMTPSecure = mailer.EncryptionSTARTTLS
	}

	m.Host = cfg.Host

	if cfg.HasPort {
		m.Port = cfg.Port
	} else if smtps {
		m.Port = DefaultSecurePort
	}

	m.SMTPAuth = cfg.HasUser || cfg.HasPass

	if cfg.HasUser {
		m.Username = cfg.User
	}
	if cfg.HasPass {
		m.Password = cfg.Pass
	}

	log.Debug().
		Str("host", m.Host).
		Int("port", m.Port).
		Bool("auth", m.SMTPAuth).
		Str("secure", m.SMTPSecure).
		Msg("configured SMTP")
}

func (c *Configurator) configureOptions(m *mailer.Mailer, opts Options) error {
	for _, o := range opts {
		if _, ok := c.allowedSet[o.Key]; !ok {
			return fmt.Errorf(
				`%w: "%s". Allowed values: "%s"`,
				ErrUnknownOption,
				o.Key,
				strings.Join(c.allowed, `", "`),
			)
		}

		if err := m.Set(o.Key, coerce(o.Key, o.Value)); err != nil {
			return fmt.Errorf("can't apply the option %q: %w", o.Key, err)
		}

		log.Debug().Str("option", o.Key).Msg("applied a DSN option")
	}
	return nil
}
