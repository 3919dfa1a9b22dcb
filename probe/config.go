package probe

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ptgott/mailerdsn/mailer"
)

// Config holds probe settings that don't belong to the mailer itself
type Config struct {
	// Bound on the whole probe, from dialing to QUIT. Zero means the
	// mailer's own Timeout, in seconds.
	Timeout time.Duration
	// Accept any server certificate, e.g., a self-signed one
	SkipCertVerification bool
	// Send MAIL FROM with the mailer's sender, then RSET
	CheckSender bool
	// Trusted CAs, loaded from the caFile setting. Nil means the system
	// pool.
	RootCAs *x509.CertPool
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. Validation is
// performed here.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	v := make(map[string]string)
	err := unmarshal(&v)

	if err != nil {
		return fmt.Errorf("can't parse the probe config: %v", err)
	}

	if t, ok := v["timeout"]; ok {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("can't parse the probe timeout as a duration: %v", err)
		}
		c.Timeout = d
	}

	if s, ok := v["skipCertVerification"]; ok {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("skipCertVerification must be true or false: %v", err)
		}
		c.SkipCertVerification = b
	}

	if s, ok := v["checkSender"]; ok {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("checkSender must be true or false: %v", err)
		}
		c.CheckSender = b
	}

	if p, ok := v["caFile"]; ok {
		pem, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("can't read the probe CA file: %v", err)
		}
		pool, err := CertPool(pem)
		if err != nil {
			return fmt.Errorf("can't load the probe CA file %v: %v", p, err)
		}
		c.RootCAs = pool
	}

	return nil
}

// CheckAndSetDefaults validates c and either returns a copy of c with
// default settings applied or returns an error due to an invalid
// configuration
func (c *Config) CheckAndSetDefaults() (Config, error) {
	if c.Timeout < 0 {
		return Config{}, errors.New("the probe timeout can't be negative")
	}
	return *c, nil
}

func (c Config) timeoutFor(m *mailer.Mailer) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return time.Duration(m.Timeout) * time.Second
}
