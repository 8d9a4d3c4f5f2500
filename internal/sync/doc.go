// Package sync implements the incremental sync engine.
//
// # Core Types
//
//   - Planner: pages through the content listing, resolves and normalizes every
//     entry, and returns the articles that are not in the cache yet
//   - Manager: runs one sync, LOAD -> PLAN -> PUBLISH* -> PERSIST
//   - Error: wraps a failure with the stage it happened in
//
// # Planner Modes
//
// The exhaustive mode (the default) scans every page up to the total reported
// by the listing and collects each unknown article. The early-stop mode ends
// the plan at the first known article; it is only correct while the listing
// is ordered newest first and nothing older is ever added.
//
// Pagination always stops once limit*(page+1) >= total, so a listing visits
// ceil(total/limit) pages and never more, whatever the pages contain.
//
// # Persistence Guarantee
//
// Each article is recorded in the cache right after it is published. When a
// publish fails the run stops, and the cache reflecting every article
// published so far is still saved before the error is returned. The cache is
// also saved after a failed plan so resolved authors and thumbnails are kept.
// The save uses a context detached from the caller's cancellation.
//
// # Coordinator Package
//
// The sync/coordinator subpackage wraps a Manager with run status tracking
// and run metrics. See internal/sync/coordinator for details.
package sync
