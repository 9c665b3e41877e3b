// Package postercache implements the two-tier poster cache.
//
// The memory tier is a hashicorp/golang-lru cache bounded by entry count and
// total bytes. The durable tier is any BlobStore: the library's SQLite store
// by default, or RedisStore when configured. Downloads are collapsed per URL
// with singleflight and never surface errors to callers; a failed fetch is
// simply a nil result.
package postercache
