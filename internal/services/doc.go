// Package services implements HTTP clients for the movie discovery backend.
//
// Every service shares a [Client] built on [NewHTTPClient], which attaches the configured bearer token
// through an [oauth2.Transport] with a static token source. No authorization flow is performed.
//
//   - [ListsService] : personal lists, list items and the watched/watchlist toggle endpoints
//   - [FilterService] : saved filter presets, including homepage ordering
//   - [MovieService] : read-only movie metadata, rate limited client-side
//   - [APIService] : raw requests for debugging
//
// # Error Handling
//
// Non-2xx responses become [shared.APIError], which unwraps to sentinels from the shared package:
//   - [shared.ErrUnauthorized] : 401/403
//   - [shared.ErrNotFound] : 404, further wrapped as [shared.ErrListNotFound], [shared.ErrFilterNotFound], [shared.ErrMovieNotFound] or [shared.ErrPersonNotFound]
//   - [shared.ErrInvalidInput] : 400/422, with the backend's validation detail
//   - [shared.ErrServiceUnavailable] : 5xx
//
// Transport failures map to [shared.ErrTimeout] or [shared.ErrAPIRequest], and undecodable bodies to
// [shared.ErrMalformedResponse].
package services
