// Package core provides low-level PDF parsing primitives and object types.
//
// Everything in this package works on an in-memory byte slice. Offsets are
// absolute positions in that slice, so errors and parsed objects can always
// be traced back to the bytes they came from.
//
// # Object Types
//
// PDF defines eight basic object types, all implemented as types satisfying the
// Object interface:
//
//   - [Null] - represents the PDF null object
//   - [Bool] - represents PDF boolean values (true/false)
//   - [Int] - represents PDF integers
//   - [Real] - represents PDF real numbers (floating point)
//   - [String] - represents PDF string objects, byte-exact, literal or hexadecimal
//   - [Name] - represents PDF name objects, stored without the slash; [Name.Raw] gives the PDF form
//   - [Array] - represents PDF arrays
//   - [Dict] - represents PDF dictionaries
//
// Additionally, [Stream] represents a PDF stream (dictionary + binary data),
// and [IndirectRef] represents a reference to an indirect object. An
// [ObjectID] names an indirect object by number and generation.
//
// # Parsing
//
// The [Lexer] splits bytes into tokens and the [Parser] turns tokens into
// objects. [ParseValueAt] parses one value at an offset and returns the
// offset just past it.
//
// Parsers run in [Tolerant] mode unless told otherwise: recoverable defects
// such as a missing endobj are collected as [Error] values on the
// [IndirectObject] and parsing continues. In [Strict] mode the first defect
// is returned. [Limits] bound nesting depth, collection sizes, string and
// stream sizes and decoded output; exceeding one is always an error of kind
// [ResourceLimitExceeded].
//
// # Cross-Reference Tables
//
// [XRefResolver] locates startxref, parses classic tables, cross-reference
// streams and hybrid files, and follows /Prev through every incremental
// update. The result is one effective [XRefTable] in which the newest entry
// for an object wins, plus the [Revision] chain, newest first, with the
// objects each update added or freed. When the chain can not be read,
// [RepairScan] rebuilds a table from the object headers in the file.
//
// # Streams
//
// [Stream.Decode] runs the /Filter chain lazily and caches the outcome. A
// failing filter still yields the bytes decoded so far, attached to a
// FilterError. [ObjectStream] reads the objects packed in /ObjStm streams.
package core
