// Package document ties a parsed file together: the [reader.Reader] that
// holds its cross-reference state and the [graph.Graph] built from it.
//
// [Analyze] walks the graph once and derives a [Metadata] snapshot with
// page count, encryption, revision and object stream counts, plus the
// feature flags security tooling cares about (JavaScript, launch and URI
// actions, embedded files, forms, signatures, rich media). URI actions are
// annotated with their scheme and host, and the catalog's XMP stream is
// checked for a readable packet.
package document
