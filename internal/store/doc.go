// Package store persists preprocessing runs in a sqlite database and keeps
// recently read records in an LRU cache.
package store
