// Package reembed regenerates embeddings for every captured item. It is the
// migration path after switching AI backends: a new embedding model produces
// vectors of a different dimensionality, and every stored item must be
// re-embedded before semantic search works again.
//
// Items are processed in batches through the provider's batch embedding API,
// with retry on transient failures and progress reporting suitable for a
// long-running CLI invocation.
package reembed
