// Package integration runs complete sync cycles against fake Contentful and
// Notion servers with the cache and run status kept on disk. The suite covers
// repeated runs, partial publish failures and legacy cache migration.
package integration
