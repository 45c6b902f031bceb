// Package reconcile keeps a local, editable view of tasks in step with the
// remote store.
//
// # State
//
// All application state lives in one State record: the task collection,
// the view mode (all or open only), the search query, the open count and
// the user-visible failure notices. The Controller is its only writer.
// Every transition is a plain function in reducer.go applied under the
// controller's lock, and every transition that changes the collection
// rebuilds the search index before the lock is released, so readers never
// see an index that disagrees with the collection.
//
// # Intents
//
// Each user intent returns a *Request carrying a correlation id. Requests
// complete asynchronously; Wait blocks until one is fully reconciled.
//
//   - Create: validated before dispatch, stamped locally, inserted only
//     after the store assigns an id. In open-only mode the whole filtered
//     list is fetched again instead.
//
//   - Rename, Toggle: applied to the collection immediately. On success
//     the authoritative value is adopted; on failure the inverse patch is
//     applied and a notice is recorded. Toggle refreshes the open count
//     only once the update has been confirmed.
//
//   - Delete: asks a Confirmer first and does nothing if declined. The
//     task leaves the collection only when the store confirms the delete.
//
//   - SetMode: the collection is replaced by a fresh fetch for the new
//     mode. A fetch overtaken by a later mode change is dropped.
//
// # Out-of-order completions
//
// Remote calls are not serialized. Before applying a result the controller
// checks that the task is still present, so a late update never resurrects
// a deleted task. Per-field revisions make sure an older response cannot
// overwrite or roll back a newer local edit, and list/count generations
// drop fetches that a newer one has superseded.
//
// A list fetch that was in flight when the store confirmed a mutation may
// predate it, so it is fetched again. A count derived from a list carries
// the generation reserved when the list was requested.
//
// In-flight requests are never cancelled but each is bounded by a timeout.
// After Close, arriving results are ignored.
package reconcile
