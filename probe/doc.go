package probe

// probe checks that a configured mailer can reach its SMTP server: it dials
// the server, says EHLO, negotiates TLS and authentication the way the
// mailer's settings ask for, optionally asks the server to accept the
// sender, and then quits. It never transmits a message. Transports other
// than SMTP can't be probed.
