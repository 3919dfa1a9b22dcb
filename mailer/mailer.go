package mailer

import (
	"net"
	"strconv"
)

// Transport modes, i.e., the values of Mailer.Transport
const (
	TransportMail     string = "mail"
	TransportSendmail string = "sendmail"
	TransportQmail    string = "qmail"
	TransportSMTP     string = "smtp"
)

// Values for Mailer.SMTPSecure
const (
	// EncryptionSTARTTLS upgrades a plaintext SMTP session to TLS
	EncryptionSTARTTLS string = "tls"
	// EncryptionSMTPS wraps the whole SMTP session in TLS (implicit TLS)
	EncryptionSMTPS string = "ssl"
)

// DefaultSMTPPort is the port a new Mailer dials unless told otherwise.
const DefaultSMTPPort int = 25

const redactedValue string = "********"

// Mailer holds every setting of an outgoing mail client. Build one with New
// so the defaults are in place. A Mailer isn't safe for concurrent mutation.
type Mailer struct {
	// Email priority: 1 = high, 3 = normal, 5 = low. 0 means no header.
	Priority    int
	CharSet     string
	ContentType string
	Encoding    string
	// Last error reported by the transport
	ErrorInfo string
	From      string
	FromName  string
	// Envelope sender (Return-Path)
	Sender  string
	Subject string
	// Column at which to wrap body text. 0 disables wrapping.
	WordWrap int

	// One of the Transport* constants
	Transport string
	// Path to the sendmail (or qmail-inject) binary
	Sendmail           string
	UseSendmailOptions bool
	ConfirmReadingTo   string
	// Hostname used in the Message-ID header and as a fallback for HELO
	Hostname  string
	MessageID string
	// RFC 5322 date for the Date header. Empty means the send time.
	MessageDate string

	Host string
	Port int
	Helo string
	// "", EncryptionSTARTTLS or EncryptionSMTPS
	SMTPSecure  string
	SMTPAutoTLS bool
	SMTPAuth    bool
	Username    string
	Password    string
	// SASL mechanism. Empty means the client picks.
	AuthType string
	// SMTP timeout in seconds
	Timeout int
	// Comma-separated RFC 3461 NOTIFY conditions, e.g., "SUCCESS,FAILURE"
	DeliveryNotify string
	SMTPDebug      int
	SMTPKeepAlive  bool
	SingleTo       bool
	DoVERP         bool
	AllowEmpty     bool

	DKIMSelector         string
	DKIMIdentity         string
	DKIMPassphrase       string
	DKIMDomain           string
	DKIMCopyHeaderFields bool
	// Path to the DKIM private key file
	DKIMPrivate string
	// The DKIM private key itself, used instead of DKIMPrivate when set
	DKIMPrivateString string
	XMailer           string
}

// New returns a Mailer that delivers through the local mail command, with
// the default settings for every other transport in place.
func New() *Mailer {
	return &Mailer{
		CharSet:              "iso-8859-1",
		ContentType:          "text/plain",
		Encoding:             "8bit",
		From:                 "root@localhost",
		FromName:             "Root User",
		Transport:            TransportMail,
		Sendmail:             "/usr/sbin/sendmail",
		UseSendmailOptions:   true,
		Host:                 "localhost",
		Port:                 DefaultSMTPPort,
		SMTPAutoTLS:          true,
		Timeout:              300,
		DKIMCopyHeaderFields: true,
	}
}

// IsMail selects the local mail command as the transport
func (m *Mailer) IsMail() {
	m.Transport = TransportMail
}

// IsSendmail selects the sendmail binary as the transport
func (m *Mailer) IsSendmail() {
	m.Transport = TransportSendmail
}

// IsQmail selects the qmail binary as the transport
func (m *Mailer) IsQmail() {
	m.Transport = TransportQmail
}

// IsSMTP selects an SMTP server as the transport
func (m *Mailer) IsSMTP() {
	m.Transport = TransportSMTP
}

// Address returns the host:port pair an SMTP client should dial. IPv6
// hosts are bracketed.
func (m *Mailer) Address() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// Redacted returns a copy of m with secrets masked so the copy can be
// printed or logged. Empty secrets stay empty.
func (m *Mailer) Redacted() *Mailer {
	c := *m
	if c.Password != "" {
		c.Password = redactedValue
	}
	if c.DKIMPassphrase != "" {
		c.DKIMPassphrase = redactedValue
	}
	if c.DKIMPrivate != "" {
		c.DKIMPrivate = redactedValue
	}
	if c.DKIMPrivateString != "" {
		c.DKIMPrivateString = redactedValue
	}
	return &c
}
