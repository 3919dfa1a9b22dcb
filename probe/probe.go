package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/ptgott/mailerdsn/mailer"
	"github.com/rs/zerolog/log"
)

// Mechanisms the probe can authenticate with, in order of preference when
// the mailer doesn't name one
var supportedAuth = []string{sasl.Plain, sasl.Login}

var (
	// ErrNotSMTP indicates a mailer whose transport isn't SMTP
	ErrNotSMTP = errors.New("only SMTP transports can be probed")

	// ErrStartTLSUnsupported indicates that the mailer requires STARTTLS
	// but the server doesn't offer it
	ErrStartTLSUnsupported = errors.New("the SMTP server doesn't support STARTTLS")

	// ErrAuthUnsupported indicates that the mailer requires authentication
	// but the server doesn't offer it
	ErrAuthUnsupported = errors.New("the SMTP server doesn't support AUTH")

	// ErrUnsupportedAuthType indicates an authentication mechanism the probe
	// can't use
	ErrUnsupportedAuthType = errors.New("unsupported authentication mechanism")
)

// Report describes what a successful probe negotiated
type Report struct {
	Address string
	// Whether the session ended up encrypted, either through implicit TLS
	// or STARTTLS
	TLS bool
	// The SASL mechanism used to log in, or "" if the probe didn't log in
	AuthMechanism string
	// Mechanisms the server advertised, after any TLS upgrade
	AdvertisedAuth []string
	// Whether the server accepted the mailer's sender. Only checked if
	// Config.CheckSender is set.
	SenderAccepted bool
}

// Run probes the SMTP server that m points at. A nil error means every step
// the mailer's settings require succeeded. The probe stops as soon as ctx
// is done or the timeout in cfg runs out, whichever comes first.
func Run(ctx context.Context, m *mailer.Mailer, cfg Config) (Report, error) {
	if m.Transport != mailer.TransportSMTP {
		return Report{}, fmt.Errorf("%w: the transport is %q", ErrNotSMTP, m.Transport)
	}

	addr := m.Address()
	timeout := cfg.timeoutFor(m)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tlsConfig := &tls.Config{
		ServerName:         m.Host,
		InsecureSkipVerify: cfg.SkipCertVerification,
		RootCAs:            cfg.RootCAs,
	}

	conn, err := dial(ctx, addr, m.SMTPSecure == mailer.EncryptionSMTPS, tlsConfig)
	if err != nil {
		return Report{}, fmt.Errorf("can't connect to the SMTP server at %v: %w", addr, err)
	}

	// go-smtp only bounds single commands, so closing the connection is
	// what ends a stalled session.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	r, err := converse(conn, m, cfg, tlsConfig, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return Report{}, fmt.Errorf("the SMTP probe of %v stopped early: %w", addr, ctx.Err())
		}
		return Report{}, err
	}
	return r, nil
}

// converse runs the SMTP session over conn and closes conn when done
func converse(conn net.Conn, m *mailer.Mailer, cfg Config, tlsConfig *tls.Config, timeout time.Duration) (Report, error) {
	r := Report{Address: m.Address()}

	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return Report{}, fmt.Errorf("can't start an SMTP session with %v: %w", r.Address, err)
	}
	defer c.Close()

	if timeout > 0 {
		c.CommandTimeout = timeout
	}
	if m.SMTPDebug > 0 {
		c.DebugWriter = log.Logger
	}

	log.Debug().Str("address", r.Address).Msg("connected to the SMTP server")

	if err := c.Hello(heloName(m)); err != nil {
		return Report{}, fmt.Errorf("the SMTP server rejected EHLO: %w", err)
	}

	_, r.TLS = c.TLSConnectionState()

	if !r.TLS {
		ok, _ := c.Extension("STARTTLS")
		switch {
		case m.SMTPSecure == mailer.EncryptionSTARTTLS && !ok:
			return Report{}, ErrStartTLSUnsupported
		case m.SMTPSecure == mailer.EncryptionSTARTTLS,
			m.SMTPSecure == "" && m.SMTPAutoTLS && ok:
			if err := c.StartTLS(tlsConfig); err != nil {
				return Report{}, fmt.Errorf("can't upgrade the SMTP session to TLS: %w", err)
			}
			r.TLS = true
			log.Debug().Msg("upgraded the SMTP session with STARTTLS")
		}
	}

	if ok, mechs := c.Extension("AUTH"); ok {
		r.AdvertisedAuth = strings.Fields(mechs)
	}

	if m.SMTPAuth {
		mech, err := authenticate(c, m, r.AdvertisedAuth)
		if err != nil {
			return Report{}, err
		}
		r.AuthMechanism = mech
		log.Debug().Str("mechanism", mech).Msg("authenticated with the SMTP server")
	}

	if cfg.CheckSender {
		if err := c.Mail(senderAddress(m), nil); err != nil {
			return Report{}, fmt.Errorf("the SMTP server rejected the sender: %w", err)
		}
		r.SenderAccepted = true
		if err := c.Reset(); err != nil {
			return Report{}, fmt.Errorf("can't reset the SMTP session: %w", err)
		}
	}

	if err := c.Quit(); err != nil {
		return Report{}, fmt.Errorf("can't end the SMTP session: %w", err)
	}

	return r, nil
}

func dial(ctx context.Context, addr string, implicitTLS bool, tc *tls.Config) (net.Conn, error) {
	nd := &net.Dialer{}
	if implicitTLS {
		d := tls.Dialer{NetDialer: nd, Config: tc}
		return d.DialContext(ctx, "tcp", addr)
	}
	return nd.DialContext(ctx, "tcp", addr)
}

func heloName(m *mailer.Mailer) string {
	if m.Helo != "" {
		return m.Helo
	}
	if m.Hostname != "" {
		return m.Hostname
	}
	return "localhost"
}

func senderAddress(m *mailer.Mailer) string {
	if m.Sender != "" {
		return m.Sender
	}
	return m.From
}

// authenticate logs in with the mechanism the mailer names or, if it
// names none, the first supported one the server advertises.
func authenticate(c *smtp.Client, m *mailer.Mailer, advertised []string) (string, error) {
	if advertised == nil {
		return "", ErrAuthUnsupported
	}

	mech := strings.ToUpper(m.AuthType)
	if mech == "" {
		mech = pickMechanism(advertised)
		if mech == "" {
			return "", fmt.Errorf(
				"%w: the server offers %v",
				ErrUnsupportedAuthType,
				strings.Join(advertised, ", "),
			)
		}
	}

	var client sasl.Client
	switch mech {
	case sasl.Plain:
		client = sasl.NewPlainClient("", m.Username, m.Password)
	case sasl.Login:
		client = sasl.NewLoginClient(m.Username, m.Password)
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedAuthType, m.AuthType)
	}

	if err := c.Auth(client); err != nil {
		return "", fmt.Errorf("can't authenticate as %q: %w", m.Username, err)
	}
	return mech, nil
}

func pickMechanism(advertised []string) string {
	for _, s := range supportedAuth {
		for _, a := range advertised {
			if strings.EqualFold(a, s) {
				return s
			}
		}
	}
	return ""
}

// CertPool builds a pool from PEM certificates, e.g., to trust a private
// CA in Config.RootCAs.
func CertPool(pem []byte) (*x509.CertPool, error) {
	p := x509.NewCertPool()
	if !p.AppendCertsFromPEM(pem) {
		return nil, errors.New("no certificates found in the PEM data")
	}
	return p, nil
}
