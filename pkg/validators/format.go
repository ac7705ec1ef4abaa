package validators

import (
	"net"
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/idna"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// RegexpValidator matches string data against a pattern anchored at the
// start of the input.
type RegexpValidator struct {
	settings
	Pattern *regexp.Regexp
}

// Regexp compiles pattern and panics when it is invalid. The match is
// anchored at the start only; add "$" to anchor the end.
func Regexp(pattern string, opts ...Option) *RegexpValidator {
	return &RegexpValidator{settings: apply(opts), Pattern: regexp.MustCompile(`^(?:` + pattern + `)`)}
}

// Validate implements forms.Validator.
func (v *RegexpValidator) Validate(_ *forms.Form, field forms.Field) error {
	s, _ := field.Data().(string)
	if v.Pattern.MatchString(s) {
		return nil
	}
	return forms.Invalid(v.text(field, "Invalid input."))
}

// EmailValidator accepts a bare address with a dotted, IDNA valid domain.
type EmailValidator struct {
	settings
}

// Email validates email addresses.
func Email(opts ...Option) *EmailValidator {
	return &EmailValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *EmailValidator) Validate(_ *forms.Form, field forms.Field) error {
	s, _ := field.Data().(string)
	if validEmail(s) {
		return nil
	}
	return forms.Invalid(v.text(field, "Invalid email address."))
}

func validEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	return validDomain(s[at+1:], true)
}

func validDomain(host string, requireTLD bool) bool {
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		return false
	}
	if requireTLD && !strings.Contains(strings.Trim(ascii, "."), ".") {
		return false
	}
	return true
}

// URLValidator accepts absolute URLs with a scheme and host.
type URLValidator struct {
	settings
	RequireTLD bool
}

// URL validates absolute URLs whose host has a top level domain.
func URL(opts ...Option) *URLValidator {
	return &URLValidator{settings: apply(opts), RequireTLD: true}
}

// Validate implements forms.Validator.
func (v *URLValidator) Validate(_ *forms.Form, field forms.Field) error {
	s, _ := field.Data().(string)
	if v.valid(s) {
		return nil
	}
	return forms.Invalid(v.text(field, "Invalid URL."))
}

func (v *URLValidator) valid(s string) bool {
	parsed, err := url.Parse(s)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	host := parsed.Hostname()
	if _, err := netip.ParseAddr(host); err == nil {
		return true
	}
	if !v.RequireTLD && host == "localhost" {
		return true
	}
	return validDomain(host, v.RequireTLD)
}

// UUIDValidator accepts RFC 4122 textual UUIDs.
type UUIDValidator struct {
	settings
}

// UUID validates UUID strings.
func UUID(opts ...Option) *UUIDValidator {
	return &UUIDValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *UUIDValidator) Validate(_ *forms.Form, field forms.Field) error {
	s, _ := field.Data().(string)
	if _, err := uuid.Parse(s); err == nil {
		return nil
	}
	return forms.Invalid(v.text(field, "Invalid UUID."))
}

// IPValidator accepts IPv4 and/or IPv6 addresses.
type IPValidator struct {
	settings
	IPv4 bool
	IPv6 bool
}

// IPAddress validates IPv4 addresses, and IPv6 addresses when ipv6 is set.
func IPAddress(ipv6 bool, opts ...Option) *IPValidator {
	return &IPValidator{settings: apply(opts), IPv4: true, IPv6: ipv6}
}

// IPv6Address validates IPv6 addresses only.
func IPv6Address(opts ...Option) *IPValidator {
	return &IPValidator{settings: apply(opts), IPv6: true}
}

// Validate implements forms.Validator.
func (v *IPValidator) Validate(_ *forms.Form, field forms.Field) error {
	s, _ := field.Data().(string)
	if addr, err := netip.ParseAddr(s); err == nil {
		if (addr.Is4() && v.IPv4) || (addr.Is6() && v.IPv6) {
			return nil
		}
	}
	return forms.Invalid(v.text(field, "Invalid IP address."))
}

// MacValidator accepts 48-bit MAC addresses written with colons or dashes.
type MacValidator struct {
	settings
}

// MacAddress validates MAC addresses.
func MacAddress(opts ...Option) *MacValidator {
	return &MacValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *MacValidator) Validate(_ *forms.Form, field forms.Field) error {
	s, _ := field.Data().(string)
	if hw, err := net.ParseMAC(s); err == nil && len(hw) == 6 && len(s) == 17 {
		return nil
	}
	return forms.Invalid(v.text(field, "Invalid Mac address."))
}
