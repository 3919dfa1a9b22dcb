package mailer

// mailer models the transport-facing settings of an outgoing mail client:
// which delivery mechanism it uses (local mail command, sendmail, qmail or
// SMTP) and the named fields that tune it. It does not deliver mail. Each
// field is addressable by the option name callers use in configuration
// strings, so other packages can assign settings by name without reflection.
