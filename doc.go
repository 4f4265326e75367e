// Package pdfast parses PDF files into a typed object graph.
//
// Basic usage:
//
//	doc, err := pdfast.Parse(data)
//	if err != nil {
//	    // handle error
//	}
//	meta := doc.Metadata()
//	fmt.Println(meta.Version, meta.PageCount, meta.Features.JavaScript)
//
// Parsing is tolerant by default: malformed objects, dangling references
// and broken cross-reference sections are recorded on the affected nodes
// and on the document, and parsing continues. Strict mode returns the
// first defect as an error:
//
//	doc, err := pdfast.Parse(data, pdfast.WithStrict())
//	if core.IsKind(err, core.ReferenceError) {
//	    // ...
//	}
//
// Resource ceilings ([core.Limits]) apply in both modes; exceeding one is
// always an error.
//
// # Streaming
//
// [ParseStreaming] reads its input in fixed-size chunks, reporting progress
// after each one. Nodes are created in the order object headers appear in
// the file, so the resulting graph does not depend on the chunk size.
//
// For lower-level access the reader, resolver and graph packages can be
// used directly.
package pdfast
