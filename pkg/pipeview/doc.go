// Package pipeview keeps a local copy of a CI/CD pipeline document in sync with a backend.
//
// A Poller issues GET requests against the pipeline endpoint of a backend at a fixed
// interval and holds the most recently accepted document. Every accepted response replaces
// the held snapshot wholesale, there is no merging or diffing between documents.
//
// Failures never clear the snapshot. A transport error, a non-2xx status or a body that does
// not parse is reported to observers and the previous, stale, document stays in place until the
// next scheduled poll succeeds. There is no retry backoff: the polling interval is the retry.
//
// Presentation code observes the poller through Subscribe and re-derives its output from
// CurrentSnapshot, see the view package for the read-only projection used by the terminal UI.
//
// Fetches are not serialised. When a request is slower than the interval, several requests can
// be outstanding and their completions may arrive out of firing order. By default the last
// completion wins; WithOrdering(OrderLatestIssued) drops completions that are older than the
// snapshot already held.
package pipeview
