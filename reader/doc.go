// Package reader provides random access to the indirect objects of a PDF
// held in memory.
//
// A [Reader] locates the %PDF- header, resolves the cross-reference chain
// through every incremental revision and parses objects on demand:
//
//	r, err := reader.NewReader(data, reader.WithMode(core.Tolerant))
//	if err != nil {
//	    return err
//	}
//	obj, err := r.ReadObject(core.ObjectID{Number: 5})
//
// # Recovery
//
// In tolerant mode an unreadable chain is replaced by a linear scan for
// "N G obj" headers, and objects missing from a partially broken chain are
// backfilled from the same scan. The defects are kept as issues; see
// [Reader.Issues]. Strict mode returns them as errors instead.
//
// # Object streams
//
// Compressed entries are read through [core.ObjectStream]; each container
// is decoded once, under the reader's limits, and cached.
package reader
