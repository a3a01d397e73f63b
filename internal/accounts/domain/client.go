package domain

import "slices"

// ClientRegistration is a relying party allowed to start journeys. Values
// are loaded as a whole snapshot and never mutated afterwards.
type ClientRegistration struct {
	ID           string   `yaml:"client_id"`
	Name         string   `yaml:"client_name"`
	Scope        string   `yaml:"scope"`         // journey scope the client may start
	RedirectURIs []string `yaml:"redirect_uris"` // exact strings, never patterns
	KeyAlias     string   `yaml:"key_alias"`     // assertion verification key at the key service
	JWKSURI      string   `yaml:"jwks_uri,omitempty"`
}

// Clone returns a deep copy so a registry snapshot never shares slices with
// its source.
func (c ClientRegistration) Clone() ClientRegistration {
	c.RedirectURIs = slices.Clone(c.RedirectURIs)
	return c
}
