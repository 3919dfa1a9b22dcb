package smtptest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/flashmob/go-guerrilla/tests/testcert"
)

// certHost is the host the generated certificate is valid for. Clients
// that verify certificates must dial this address.
const certHost string = "127.0.0.1"

// GenerateTLSFiles writes a TLS key and certificate to a temporary test
// directory that is removed after the test runs. It returns the file
// paths of the key and certificate. The certificate is a root cert.
func GenerateTLSFiles(t *testing.T) (keyPath string, certPath string, err error) {
	// testcert concatenates its prefix and the host name, so the prefix
	// needs a trailing separator.
	d := t.TempDir() + string(filepath.Separator)
	err = testcert.GenerateCert(
		certHost,
		"",                         // defaults to now
		time.Duration(1)*time.Hour, // the test won't run for this long
		true,                       // is a CA cert
		2048,                       // usually seen in online tutorials
		"",                         // using the default ecdsa curve,
		d,
	)

	if err != nil {
		return
	}

	// These path names are hardcoded into testcert.GenerateCert
	keyPath = d + certHost + ".key.pem"
	certPath = d + certHost + ".cert.pem"

	return
}
