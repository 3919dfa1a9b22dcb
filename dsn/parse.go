package dsn

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const maxPort int = 65535

// Config is a parsed DSN. The Has* flags tell an absent component apart
// from an empty one, e.g., "smtp://:pass@host" has an empty user.
type Config struct {
	Scheme  string
	Host    string
	Port    int
	HasPort bool
	User    string
	HasUser bool
	Pass    string
	HasPass bool
	Query   Options
}

// Option is a single decoded query parameter
type Option struct {
	Key   string
	Value string
}

// Options holds query parameters in the order the DSN first mentions each
// key. A repeated key keeps its first position and takes its last value.
type Options []Option

// Parse splits dsn into its components. It fails with ErrMalformedDSN if
// dsn isn't a URL, lacks a scheme or host, or has a port outside 0-65535.
// The scheme keeps the case it was written in.
func Parse(dsn string) (Config, error) {
	malformed := fmt.Errorf(`%w: "%s"`, ErrMalformedDSN, dsn)

	u, err := url.Parse(dsn)
	if err != nil {
		return Config{}, malformed
	}

	// Opaque URLs like "mail:localhost" end up without a host and are
	// rejected here too.
	if u.Scheme == "" || u.Hostname() == "" {
		return Config{}, malformed
	}

	c := Config{
		// url.Parse lowercases the scheme. The original is a prefix of dsn
		// with the same length.
		Scheme: dsn[:len(u.Scheme)],
		Host:   u.Hostname(),
	}

	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n > maxPort {
			return Config{}, malformed
		}
		c.Port = n
		c.HasPort = true
	}

	if u.User != nil {
		c.User = u.User.Username()
		c.HasUser = true
		c.Pass, c.HasPass = u.User.Password()
	}

	if u.RawQuery != "" {
		q, err := parseQuery(u.RawQuery)
		if err != nil {
			return Config{}, malformed
		}
		c.Query = q
	}

	return c, nil
}

// parseQuery decodes a form-encoded query string while keeping key order,
// which url.ParseQuery doesn't. Empty keys are dropped.
func parseQuery(raw string) (Options, error) {
	var opts Options
	idx := make(map[string]int)

	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}

		k, v, _ := strings.Cut(seg, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		if key == "" {
			continue
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}

		if i, ok := idx[key]; ok {
			opts[i].Value = val
			continue
		}
		idx[key] = len(opts)
		opts = append(opts, Option{Key: key, Value: val})
	}

	return opts, nil
}
