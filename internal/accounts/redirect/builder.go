// Package redirect builds the Location a browser is sent back to.
//
// Build trusts its caller: the target must already have been matched
// against the client's registered redirect URIs.
package redirect

import (
	"errors"
	"net/url"
	"strings"
)

// neutralBase gives relative targets a well-defined parse. It never leaks
// into the output.
var neutralBase = &url.URL{Scheme: "http", Host: "redirect.invalid"}

// ErrEmptyTarget is returned when there is nothing to redirect to.
var ErrEmptyTarget = errors.New("redirect: empty target")

// ErrorParams is an OAuth error to report to the client.
type ErrorParams struct {
	Type        string
	Description string
}

// Params are the values merged into the target's query.
type Params struct {
	Code  string
	State string
	Error *ErrorParams
}

// Build returns target with the OAuth response parameters set. An error
// takes precedence over a code. Relative targets come back as path and
// query only, so no scheme or host can be smuggled in. A target that does
// not parse is handled as relative.
func Build(target string, p Params) (string, error) {
	if target == "" {
		return "", ErrEmptyTarget
	}

	ref, err := url.Parse(target)
	if err != nil {
		ref = asRelative(target)
	}
	relative := !ref.IsAbs()

	u := neutralBase.ResolveReference(ref)
	q := u.Query()

	switch {
	case p.Error != nil:
		q.Del("code")
		q.Set("error", p.Error.Type)
		q.Set("error_description", p.Error.Description)
	case p.Code != "":
		q.Set("code", p.Code)
	}
	if p.State != "" {
		q.Set("state", p.State)
	}

	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.RawFragment = ""

	if relative {
		// "//host" would be read as protocol-relative by a browser.
		u.Path = "/" + strings.TrimLeft(u.Path, "/")
		u.RawPath = ""
		return u.RequestURI(), nil
	}
	return u.String(), nil
}

// asRelative keeps an unparseable target as a literal path on this host.
// Bad escapes in the path are escaped again on output; bad query pairs are
// dropped by url.ParseQuery.
func asRelative(target string) *url.URL {
	target, _, _ = strings.Cut(target, "#")
	path, query, _ := strings.Cut(target, "?")
	return &url.URL{Path: path, RawQuery: query}
}
