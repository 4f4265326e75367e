// Package resolver turns the indirect objects of a PDF into a typed graph.
//
// PDF documents use indirect references (e.g., "5 0 R") to refer to objects
// stored elsewhere in the file. A [Builder] follows these references from
// the trailer, gives every object one node and every reference one edge,
// and assigns node types from /Type, /Subtype, /S and the key a value was
// reached through (see [Classify]).
//
// # Basic Usage
//
//	r, err := reader.NewReader(data)
//	if err != nil {
//	    return err
//	}
//	g, err := resolver.NewBuilder(r).Build()
//
// # Cycles and Shared Objects
//
// Objects are memoized by object id, so a second reference to an object
// becomes a second edge to the same node and reference cycles terminate.
// References under /Parent, /P and /Prev are recorded as back-reference
// edges, which keeps an ordinary page tree acyclic.
//
// # Defects
//
// In tolerant mode a reference to a missing or free object becomes a
// warning on the referring node, an object that cannot be parsed becomes
// a node of type Unknown carrying the error, and a reference deeper than
// Limits.MaxDepth is left unfollowed with a ResourceLimitExceeded error on
// the referring node. In strict mode each of these fails the build.
// Exceeding Limits.MaxObjects always fails it.
//
//	g, err := resolver.NewBuilder(r,
//	    resolver.WithMode(core.Strict),
//	    resolver.WithLimits(core.Limits{MaxDepth: 64}),
//	).Build()
//
// [ResolveReferences] re-runs reference linking over an existing graph and
// is useful when diagnosing a graph built by hand.
package resolver
