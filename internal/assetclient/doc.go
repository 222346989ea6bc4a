// Package assetclient is the HTTP client for an assetdesk server's asset
// endpoints: the JSON list (GET /assets with Accept: application/json) and
// the asset entry writes (POST and DELETE /asset-entry).
//
// Reads are retried with exponential backoff on timeouts, refused
// connections and 5xx responses. Writes are sent once.
package assetclient
