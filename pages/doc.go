// Package pages provides ordered access to the page tree of a document
// graph.
//
// PDF documents organize pages in a tree of /Pages nodes whose leaves are
// /Page dictionaries. [New] finds the root through the catalog's /Pages
// edge and flattens the tree in /Kids order:
//
//	tree, err := pages.New(g)
//	if err != nil {
//	    return err
//	}
//	for _, p := range tree.Pages() {
//	    box, _ := p.MediaBox()
//	    fmt.Println(p.Index(), box)
//	}
//
// # Malformed Trees
//
// The walk keeps a visited set, so a /Kids cycle or a page listed under
// two parents is reported through [Tree.Issues] instead of looping. Kids
// without a /Type are treated as intermediate nodes when they carry /Kids
// and as pages otherwise. [Tree.Count] is the number of pages actually
// found; [Tree.DeclaredCount] is the root's /Count, which may disagree.
//
// # Inheritance
//
// MediaBox, CropBox, Resources and Rotate are inheritable: a [Page] looks
// them up on itself first and then on each ancestor, nearest first.
package pages
