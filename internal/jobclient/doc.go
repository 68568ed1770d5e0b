// Package jobclient talks to the transcription backend over HTTP.
//
// Client implements the job repository (list, get, submit, delete, request
// summary) and the content-fetch capability (exported outputs, summary
// markdown) used by the transcript resolver and the sync engine. Every
// request carries an X-Request-ID correlation id that is also attached to
// the debug log line for the call.
//
// Non-2xx responses become *HTTPError carrying the backend's "detail"
// message. errors.Is(err, ErrNotFound) matches 404s, and IsUnavailable
// classifies transport failures such as a refused connection.
package jobclient
