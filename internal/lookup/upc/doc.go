// Package upc resolves scanned UPC/EAN barcodes to retail product listings and
// cleans listing titles into searchable movie titles.
package upc
