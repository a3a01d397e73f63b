package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/stretchr/testify/require"
)

func TestTokenRequestValidate(t *testing.T) {
	valid := domain.TokenRequest{
		GrantType:           domain.GrantTypeAuthorizationCode,
		Code:                "code-1",
		ClientAssertionType: domain.ClientAssertionTypeJWTBearer,
		ClientAssertion:     "a.b.c",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*domain.TokenRequest)
	}{
		{"wrong grant type", func(r *domain.TokenRequest) { r.GrantType = "refresh_token" }},
		{"empty grant type", func(r *domain.TokenRequest) { r.GrantType = "" }},
		{"missing code", func(r *domain.TokenRequest) { r.Code = "" }},
		{"wrong assertion type", func(r *domain.TokenRequest) { r.ClientAssertionType = "urn:other" }},
		{"missing assertion", func(r *domain.TokenRequest) { r.ClientAssertion = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			require.ErrorIs(t, req.Validate(), domain.ErrMalformedTokenRequest)
		})
	}
}
