// Package sources reads blog entries and the sub-resources they reference
// (media assets and author profiles) from the content management system.
//
// Architecture:
//   - ContentSource: interface used by the planner and the enrichment resolver
//   - Contentful: implementation over the Contentful management API
//   - Entry: read-only view of one raw entry with localized field access
//
// Every read goes through an httpclient.Client; the client built by
// NewContentSource is throttled by the cms-read gate and authenticated with the
// Contentful bearer token.
package sources
