// Package barcodecache remembers which title each scanned barcode resolved to,
// so rescanning a disc skips the UPC provider. Entries live in a JSON file that
// is rewritten atomically on every change.
package barcodecache
