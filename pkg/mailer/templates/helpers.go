package templates

import (
	"time"
)

// Brand carries the sender identity rendered into every email.
type Brand struct {
	AppName     string
	CompanyName string
	SupportURL  string
}

// Option pattern
type Option func(*EmailData)

func WithConfirmURL(url string) Option { return func(d *EmailData) { d.ConfirmURL = url } }
func WithBagName(name string) Option   { return func(d *EmailData) { d.BagName = name } }

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02.01.2006 15:04 UTC")
	}
}

// NewEmailData fills the common fields from b, then applies opts.
func NewEmailData(b Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:        name,
		Email:       email,
		Type:        typ,
		AppName:     b.AppName,
		CompanyName: b.CompanyName,
		SupportURL:  b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewConfirmEmailData(b Brand, name, email, confirmURL string, ttl time.Duration) map[string]any {
	return ToMap(NewEmailData(b, ConfirmEmail, name, email, WithConfirmURL(confirmURL), WithExpiresIn(ttl)))
}

func NewWelcomeData(b Brand, name, email string) map[string]any {
	return ToMap(NewEmailData(b, Welcome, name, email, WithBagName("Моя косметичка")))
}
