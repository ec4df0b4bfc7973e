// Package services implements the Spotify login flow and the player calls made with its token.
//
// # Login
//
// [Authenticator] runs the OAuth 2.0 authorization code flow with PKCE for a public client (no secret):
//
//  1. [Authenticator.BeginLogin] generates a code verifier, persists it in a [store.Store] under
//     "widget_code_verifier", and hands the authorization URL to a [Navigator].
//  2. The provider redirects back with ?code=... to the configured redirect URI.
//  3. [Authenticator.HandleRedirect] sends the code and the stored verifier to the token endpoint and
//     puts the access token into the [Session]. Callers then drop the code from the URL with [CleanURL].
//
// There is no refresh. A new process starts anonymous.
//
// # Session
//
// [Session.Call] is the single entry point for API requests. It attaches the bearer token, sends an
// optional JSON body, and returns the status, headers, and body as an [APIResponse] without judging the
// status. Typed callers use [APIResponse.Err] to turn Spotify error payloads into [*APIError].
//
// # Spotify Implementation
//
// [SpotifyService] implements [Service] with the player and search endpoints and maps the wire types
// to [models.Playback] and [models.Track].
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no token held, nothing was sent
//   - [shared.ErrAuthFailed] : provider denial or failed token exchange
//   - [shared.ErrMissingVerifier] : the redirect arrived without a stored verifier
//   - [shared.ErrAPIRequest] : transport failure, also wrapped by [*APIError]
package services
