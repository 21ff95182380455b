// Package server exposes a [models.Repository] over HTTP as a JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /path/{id}"), so requests with
// an unregistered method get 405 from the mux itself.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [LyricHandler] and [PlaylistHandler] dispatch on the matched pattern.
//
// # API
//
// All routes live under [APIPrefix]:
//
//	GET    /lyric          summaries, or full lyrics with ?full=true
//	POST   /lyric          create from {title, parts}, 201 with the new lyric
//	GET    /lyric/{id}
//	PUT    /lyric/{id}     create or replace
//	DELETE /lyric/{id}     204
//
// /playlist mirrors these with {title, members}. Errors are returned as {"error": "..."} with a status
// derived from the repository error: 404 not found, 422 invalid member reference, 400 bad input,
// 503 when the repository is stopped or the request was canceled, 500 otherwise.
package server
