package common

import (
	"strings"

	"github.com/lib/pq"
)

// QuoteQualified quotes each dot-separated part of a possibly
// schema-qualified name: public.tenants becomes "public"."tenants".
func QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// RedactURL hides the password of a connection URL for log output.
func RedactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	creds := raw[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return raw[:scheme+3] + creds[:colon] + ":***" + raw[at:]
	}
	return raw
}
