package smtptest

// smtptest runs an SMTP server inside the test process so that tests can
// check what an SMTP client negotiated (TLS, AUTH) and what it sent. It
// also generates throwaway TLS certificates for that server. It is only
// meant to be imported from _test.go files.
