// Package store persists jobs and payload templates.
//
// The document model is a flat key/value mapping rewritten whole on every
// mutation. There is no append log and no partial update; Save is the
// durability boundary.
package store
