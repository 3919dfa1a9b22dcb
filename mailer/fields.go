package mailer

import (
	"errors"
	"fmt"

	yaml "gopkg.in/yaml.v2"
)

// Kind is the Go type behind a Field
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "string"
	}
}

var (
	// ErrNoSuchField indicates that a name doesn't match any Mailer field
	ErrNoSuchField = errors.New("no such mailer field")

	// ErrFieldType indicates a value whose type doesn't match the field
	ErrFieldType = errors.New("wrong type for mailer field")
)

// Field is a Mailer setting addressable by name. Name is the option name
// used in configuration strings, which isn't always the Go field name
// (e.g., "do_verp" for DoVERP).
type Field struct {
	Name string
	ref  func(*Mailer) interface{}
}

// Kind reports the type of value the field holds
func (f Field) Kind() Kind {
	switch f.ref(&Mailer{}).(type) {
	case *bool:
		return KindBool
	case *int:
		return KindInt
	default:
		return KindString
	}
}

// registry lists every field in enumeration order. Keep it in the same
// order as the Mailer struct.
var registry = []Field{
	{"Priority", func(m *Mailer) interface{} { return &m.Priority }},
	{"CharSet", func(m *Mailer) interface{} { return &m.CharSet }},
	{"ContentType", func(m *Mailer) interface{} { return &m.ContentType }},
	{"Encoding", func(m *Mailer) interface{} { return &m.Encoding }},
	{"ErrorInfo", func(m *Mailer) interface{} { return &m.ErrorInfo }},
	{"From", func(m *Mailer) interface{} { return &m.From }},
	{"FromName", func(m *Mailer) interface{} { return &m.FromName }},
	{"Sender", func(m *Mailer) interface{} { return &m.Sender }},
	{"Subject", func(m *Mailer) interface{} { return &m.Subject }},
	{"WordWrap", func(m *Mailer) interface{} { return &m.WordWrap }},
	{"Mailer", func(m *Mailer) interface{} { return &m.Transport }},
	{"Sendmail", func(m *Mailer) interface{} { return &m.Sendmail }},
	{"UseSendmailOptions", func(m *Mailer) interface{} { return &m.UseSendmailOptions }},
	{"ConfirmReadingTo", func(m *Mailer) interface{} { return &m.ConfirmReadingTo }},
	{"Hostname", func(m *Mailer) interface{} { return &m.Hostname }},
	{"MessageID", func(m *Mailer) interface{} { return &m.MessageID }},
	{"MessageDate", func(m *Mailer) interface{} { return &m.MessageDate }},
	{"Host", func(m *Mailer) interface{} { return &m.Host }},
	{"Port", func(m *Mailer) interface{} { return &m.Port }},
	{"Helo", func(m *Mailer) interface{} { return &m.Helo }},
	{"SMTPSecure", func(m *Mailer) interface{} { return &m.SMTPSecure }},
	{"SMTPAutoTLS", func(m *Mailer) interface{} { return &m.SMTPAutoTLS }},
	{"SMTPAuth", func(m *Mailer) interface{} { return &m.SMTPAuth }},
	{"Username", func(m *Mailer) interface{} { return &m.Username }},
	{"Password", func(m *Mailer) interface{} { return &m.Password }},
	{"AuthType", func(m *Mailer) interface{} { return &m.AuthType }},
	{"Timeout", func(m *Mailer) interface{} { return &m.Timeout }},
	{"dsn", func(m *Mailer) interface{} { return &m.DeliveryNotify }},
	{"SMTPDebug", func(m *Mailer) interface{} { return &m.SMTPDebug }},
	{"SMTPKeepAlive", func(m *Mailer) interface{} { return &m.SMTPKeepAlive }},
	{"SingleTo", func(m *Mailer) interface{} { return &m.SingleTo }},
	{"do_verp", func(m *Mailer) interface{} { return &m.DoVERP }},
	{"AllowEmpty", func(m *Mailer) interface{} { return &m.AllowEmpty }},
	{"DKIM_selector", func(m *Mailer) interface{} { return &m.DKIMSelector }},
	{"DKIM_identity", func(m *Mailer) interface{} { return &m.DKIMIdentity }},
	{"DKIM_passphrase", func(m *Mailer) interface{} { return &m.DKIMPassphrase }},
	{"DKIM_domain", func(m *Mailer) interface{} { return &m.DKIMDomain }},
	{"DKIM_copyHeaderFields", func(m *Mailer) interface{} { return &m.DKIMCopyHeaderFields }},
	{"DKIM_private", func(m *Mailer) interface{} { return &m.DKIMPrivate }},
	{"DKIM_private_string", func(m *Mailer) interface{} { return &m.DKIMPrivateString }},
	{"XMailer", func(m *Mailer) interface{} { return &m.XMailer }},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, f := range registry {
		idx[f.Name] = i
	}
	return idx
}()

// Fields returns every Mailer field in enumeration order. The caller owns
// the returned slice.
func Fields() []Field {
	f := make([]Field, len(registry))
	copy(f, registry)
	return f
}

// Lookup returns the field with the given option name. Names are
// case-sensitive.
func Lookup(name string) (Field, bool) {
	i, ok := registryIndex[name]
	if !ok {
		return Field{}, false
	}
	return registry[i], true
}

// Get returns the current value of the named field
func (m *Mailer) Get(name string) (interface{}, bool) {
	f, ok := Lookup(name)
	if !ok {
		return nil, false
	}
	switch p := f.ref(m).(type) {
	case *string:
		return *p, true
	case *bool:
		return *p, true
	case *int:
		return *p, true
	}
	return nil, false
}

// Set assigns value to the named field. The value must already have the
// field's type: a string, bool or int. No conversion takes place.
func (m *Mailer) Set(name string, value interface{}) error {
	f, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchField, name)
	}

	switch p := f.ref(m).(type) {
	case *string:
		if v, ok := value.(string); ok {
			*p = v
			return nil
		}
	case *bool:
		if v, ok := value.(bool); ok {
			*p = v
			return nil
		}
	case *int:
		if v, ok := value.(int); ok {
			*p = v
			return nil
		}
	}

	return fmt.Errorf(
		"%w: %q expects a %v but got %T",
		ErrFieldType,
		name,
		f.Kind(),
		value,
	)
}

// Settings returns the name and value of every field in enumeration order,
// ready for YAML encoding.
func (m *Mailer) Settings() yaml.MapSlice {
	s := make(yaml.MapSlice, 0, len(registry))
	for _, f := range registry {
		v, _ := m.Get(f.Name)
		s = append(s, yaml.MapItem{Key: f.Name, Value: v})
	}
	return s
}
