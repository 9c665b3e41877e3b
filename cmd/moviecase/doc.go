// Package main hosts the moviecase CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the library store,
// the ingestion workflows, and the poster and barcode caches. It owns
// configuration resolution, logger construction, and the per-invocation
// wiring in withApp so subcommands only describe input and output.
//
// Commands that change the library hold an advisory lock on
// <data_dir>/library.lock for their whole run; read-only commands never block.
package main
