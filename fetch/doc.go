// Package fetch retrieves external content referenced by captured items:
// web pages for link items and stored file bytes for file items.
//
// PageFetcher performs a bounded GET and distills the response into
// PageMetadata using readability extraction, so callers never handle raw
// HTML. Failures that are worth retrying (network errors, timeouts, 5xx
// responses) are wrapped in TransientError; everything else is permanent.
//
// BlobStore abstracts where file bytes live. DirStore is the local-directory
// implementation used by the CLI.
package fetch
