/*
Package authsdk is the relying-party SDK for the accounts service.

# Overview

A relying party sends the user's browser to the accounts service to run a
journey (delete-account, change-email, register-passkey). When the journey
finishes the browser comes back with an authorization code, which the
relying party exchanges for an access token by authenticating with a signed
client assertion (RFC 7523). There are no client secrets and no refresh
tokens.

	signer, _ := jwtx.NewSignerES256("rp-1-signing", pemKey)
	client := authsdk.NewSDKClient("https://accounts.example.com", "rp-1", signer)

	state, _ := authsdk.GenerateState()
	http.Redirect(w, r, client.BuildAuthorizeURL(callbackURL, state, "delete-account"), http.StatusFound)

Then, in the callback handler:

	cb, err := authsdk.ParseCallback(r.URL.Query(), state)
	if err != nil {
		// *OAuth2Error if the service reported one
	}
	tok, err := client.ExchangeCode(ctx, cb.Code)

# Verifying Access Tokens

Access tokens are JWTs signed with keys published at /.well-known/jwks.json.
The journey_state claim tells the relying party how the journey ended.

	verifier, _ := client.NewAccessVerifier(ctx, "https://accounts.example.com")
	claims, err := verifier.Verify(tok.AccessToken, "rp-1")

# Errors

Failed calls return *OAuth2Error. Compare with errors.Is against the
sentinels, which match on the error code only:

	if errors.Is(err, authsdk.ErrInvalidGrant) {
		// code already used, expired, or assertion replayed
	}
*/
package authsdk
