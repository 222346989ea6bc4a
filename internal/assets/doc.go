// Package assets holds the asset register: the Asset model, form
// validation, fuzzy search, pagination and the Store abstraction with its
// in-memory implementation and read cache.
//
// The PostgreSQL store lives in the postgres subpackage.
package assets
