package smtptest

import (
	"crypto/tls"
	"io"
	"net"
	"sync"

	"github.com/docker/go-units"
	"github.com/emersion/go-smtp"
)

// Cap on DATA payloads. Nothing should send one, but we need a limit.
const maxMessageSize int64 = 10 * units.MiB

var errDataRefused = &smtp.SMTPError{
	Code:         554,
	EnhancedCode: smtp.EnhancedCode{5, 7, 1},
	Message:      "This server doesn't accept messages",
}

var errBadCredentials = &smtp.SMTPError{
	Code:         535,
	EnhancedCode: smtp.EnhancedCode{5, 7, 8},
	Message:      "Invalid credentials",
}

// Options configures a Server
type Options struct {
	// Username/password pairs the server accepts. Login attempts with
	// anything else fail.
	Credentials map[string]string
	// Paths to a PEM key and certificate. When both are set, the server
	// advertises STARTTLS.
	KeyPath  string
	CertPath string
	// Advertise AUTH before the session is upgraded to TLS
	AllowInsecureAuth bool
	// Reject MAIL FROM until the client has logged in
	RequireAuth bool
}

// Server is an SMTP server that runs in the same process as the test
// suite. It listens on a random loopback port. Create it with NewServer.
type Server struct {
	*smtp.Server
	ln net.Listener

	mu      sync.Mutex
	senders []string
	logins  []string
}

// NewServer starts listening but doesn't accept connections until Start
// is called.
func NewServer(opts Options) (*Server, error) {
	s := &Server{}
	be := &backend{srv: s, opts: opts}

	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = opts.AllowInsecureAuth
	srv.MaxMessageBytes = int(maxMessageSize)
	// Strict enforces <address> syntax in MAIL and RCPT
	srv.Strict = true

	if opts.KeyPath != "" && opts.CertPath != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertPath, opts.KeyPath)
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(certHost, "0"))
	if err != nil {
		return nil, err
	}
	srv.Addr = ln.Addr().String()

	s.Server = srv
	s.ln = ln
	return s, nil
}

// Start serves connections until Close is called. Blocking.
func (s *Server) Start() error {
	return s.Server.Serve(s.ln)
}

// Close shuts down the server. You must create a new Server instead of
// restarting this one.
func (s *Server) Close() {
	s.Server.Close()
	// Start may not have handed the listener to the smtp.Server yet
	s.ln.Close()
}

// Address returns the host:port the server listens on
func (s *Server) Address() string {
	return s.ln.Addr().String()
}

// Senders returns every MAIL FROM address accepted so far
func (s *Server) Senders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make([]string, len(s.senders))
	copy(m, s.senders)
	return m
}

// Logins returns the usernames of every successful login so far
func (s *Server) Logins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := make([]string, len(s.logins))
	copy(l, s.logins)
	return l
}

func (s *Server) saveSender(from string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senders = append(s.senders, from)
}

func (s *Server) saveLogin(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, username)
}

// backend implements smtp.Backend
type backend struct {
	srv  *Server
	opts Options
}

// Login implements smtp.Backend
func (be *backend) Login(state *smtp.ConnectionState, username string, password string) (smtp.Session, error) {
	p, ok := be.opts.Credentials[username]
	if !ok || username == "" || p != password {
		return nil, errBadCredentials
	}
	be.srv.saveLogin(username)
	return &session{srv: be.srv}, nil
}

// AnonymousLogin implements smtp.Backend
func (be *backend) AnonymousLogin(state *smtp.ConnectionState) (smtp.Session, error) {
	if be.opts.RequireAuth {
		return nil, smtp.ErrAuthRequired
	}
	return &session{srv: be.srv}, nil
}

// session implements smtp.Session for a single connection. It accepts
// senders and recipients but refuses message data, since nothing under
// test should deliver mail.
type session struct {
	srv *Server
}

// Reset implements smtp.Session. No-op here.
func (s *session) Reset() {}

// Logout implements smtp.Session. No-op here.
func (s *session) Logout() error { return nil }

// Mail implements smtp.Session
func (s *session) Mail(from string, _ smtp.MailOptions) error {
	s.srv.saveSender(from)
	return nil
}

// Rcpt implements smtp.Session. No-op here.
func (s *session) Rcpt(to string) error { return nil }

// Data implements smtp.Session. Drains the message and rejects it.
func (s *session) Data(r io.Reader) error {
	if _, err := io.Copy(io.Discard, io.LimitReader(r, maxMessageSize)); err != nil {
		return err
	}
	return errDataRefused
}
