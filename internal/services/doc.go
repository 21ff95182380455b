// Package services implements clients for remote lipl servers.
//
// # API Client
//
// [Client] talks to the JSON API served by the server package. Every request waits on a
// [rate.Limiter] first, so bulk uploads cannot flood a small server.
//
// [APIService] is the raw layer underneath: it performs a request and returns status, headers and body.
// The typed methods of [Client] decode bodies into models values.
//
// # Error Handling
//
// Non-2xx responses become [*APIError] values carrying the status and the server's message.
// They match errors from the models and shared packages:
//   - 404 : [models.ErrNotFound]
//   - 422 : [models.ErrInvalidReference]
//   - 400 : [shared.ErrInvalidInput]
//   - other : [shared.ErrAPIRequest]
package services
