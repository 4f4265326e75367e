package resolver

import (
	"strings"

	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
)

// Context describes where a value was found.
type Context struct {
	// Key is the dictionary key holding the value, or holding the array
	// the value is in.
	Key string
	// Path is the full key path inside the referring value, such as
	// "/EF/F" or "/Kids[2]".
	Path string
	// Parent is the type of the node holding the reference.
	Parent graph.NodeType
}

// Classify assigns a node type from structural cues: /Type, /Subtype and
// /S first, then the key and parent the value was reached through.
func Classify(v core.Object, ctx Context) graph.NodeType {
	switch v := v.(type) {
	case *core.Stream:
		return classifyStream(v.Dict, ctx)
	case core.Dict:
		return classifyDict(v, ctx)
	case core.Array:
		if ctx.Key == "XFA" {
			return graph.NodeXFA
		}
		return graph.NodeArray
	case nil:
		return graph.NodeUnknown
	}
	return graph.NodeValue
}

func classifyStream(d core.Dict, ctx Context) graph.NodeType {
	typ, _ := d.GetName("Type")
	sub, _ := d.GetName("Subtype")
	switch {
	case typ == "ObjStm":
		return graph.NodeObjectStream
	case typ == "XRef":
		return graph.NodeXRefStream
	case typ == "Metadata":
		return graph.NodeXMPMetadata
	case typ == "EmbeddedFile":
		return graph.NodeEmbeddedFile
	case sub == "Image":
		return graph.NodeImage
	case sub == "Form":
		return graph.NodeForm
	case typ == "Sound":
		return graph.NodeSound
	case sub == "U3D" || sub == "PRC" || typ == "3D":
		return graph.Node3D
	}
	switch {
	case ctx.Key == "Metadata":
		return graph.NodeXMPMetadata
	case ctx.Key == "XFA":
		return graph.NodeXFA
	case ctx.Key == "Contents" && ctx.Parent == graph.NodePage:
		return graph.NodeContentStream
	case strings.HasSuffix(ctx.Path, "/EF/F") || strings.HasSuffix(ctx.Path, "/EF/UF"):
		return graph.NodeEmbeddedFile
	case ctx.Key == "Sound":
		return graph.NodeSound
	}
	return graph.NodeStream
}

func classifyDict(d core.Dict, ctx Context) graph.NodeType {
	typ, _ := d.GetName("Type")
	sub, _ := d.GetName("Subtype")

	switch typ {
	case "Catalog":
		return graph.NodeCatalog
	case "Pages":
		return graph.NodePages
	case "Page":
		return graph.NodePage
	case "Font":
		return graph.NodeFont
	case "FontDescriptor":
		return graph.NodeFontDescriptor
	case "Annot":
		return classifyAnnotation(sub)
	case "Action":
		return classifyAction(d)
	case "Filespec", "F":
		return graph.NodeFileSpec
	case "Sig", "DocTimeStamp":
		return graph.NodeSignature
	case "Outlines":
		return graph.NodeOutlines
	case "DSS":
		return graph.NodeDSS
	case "Rendition":
		return graph.NodeMedia
	case "MediaClip":
		return classifyMediaClip(d)
	case "3DView", "3DNode":
		return graph.Node3D
	}
	if strings.HasPrefix(string(typ), "RichMedia") {
		return graph.NodeRichMedia
	}

	switch ctx.Key {
	case "Root":
		if ctx.Parent == graph.NodeRoot {
			return graph.NodeCatalog
		}
	case "Info":
		if ctx.Parent == graph.NodeRoot {
			return graph.NodeInfo
		}
	case "Encrypt":
		if ctx.Parent == graph.NodeRoot {
			return graph.NodeEncrypt
		}
	case "Pages":
		if ctx.Parent == graph.NodeCatalog {
			return graph.NodePages
		}
	case "Kids":
		if ctx.Parent == graph.NodePages {
			if d.Has("Kids") {
				return graph.NodePages
			}
			return graph.NodePage
		}
	case "OpenAction", "A", "Next":
		if d.Has("S") {
			return classifyAction(d)
		}
	case "Annots":
		if d.Has("Subtype") {
			return classifyAnnotation(sub)
		}
	case "AcroForm":
		return graph.NodeAcroForm
	case "Outlines":
		return graph.NodeOutlines
	case "First", "Last", "Prev":
		if ctx.Parent == graph.NodeOutlines || ctx.Parent == graph.NodeOutlineItem {
			return graph.NodeOutlineItem
		}
	case "Names":
		if ctx.Parent == graph.NodeCatalog {
			return graph.NodeNames
		}
	case "DSS":
		return graph.NodeDSS
	case "Resources":
		return graph.NodeResources
	case "FS":
		return graph.NodeFileSpec
	case "Movie":
		return graph.NodeVideo
	}

	// /AA entries are keyed by trigger name
	if strings.HasPrefix(ctx.Path, "/AA/") && d.Has("S") {
		return classifyAction(d)
	}
	// name tree values such as /Names/JavaScript carry no /Type
	if d.Has("S") && (d.Has("JS") || d.Has("URI")) {
		return classifyAction(d)
	}
	if d.Has("ByteRange") && d.Has("Contents") && d.Has("Filter") {
		return graph.NodeSignature
	}
	if d.Has("EF") {
		return graph.NodeFileSpec
	}
	return graph.NodeDictionary
}

func classifyAnnotation(sub core.Name) graph.NodeType {
	switch sub {
	case "RichMedia":
		return graph.NodeRichMedia
	case "3D":
		return graph.Node3D
	case "Sound":
		return graph.NodeSound
	case "Movie":
		return graph.NodeVideo
	}
	return graph.NodeAnnotation
}

func classifyAction(d core.Dict) graph.NodeType {
	s, _ := d.GetName("S")
	switch s {
	case "JavaScript":
		return graph.NodeJavaScriptAction
	case "URI":
		return graph.NodeURIAction
	case "Launch":
		return graph.NodeLaunchAction
	case "SubmitForm":
		return graph.NodeSubmitFormAction
	case "ImportData":
		return graph.NodeImportDataAction
	case "GoToR":
		return graph.NodeGoToRAction
	case "GoToE":
		return graph.NodeGoToEAction
	case "Sound":
		return graph.NodeSound
	case "Movie":
		return graph.NodeVideo
	case "Rendition":
		return graph.NodeMedia
	case "RichMediaExecute":
		return graph.NodeRichMedia
	}
	return graph.NodeAction
}

func classifyMediaClip(d core.Dict) graph.NodeType {
	ct, ok := d.GetString("CT")
	if !ok {
		return graph.NodeMedia
	}
	mime := strings.ToLower(ct.Text())
	switch {
	case strings.HasPrefix(mime, "audio/"):
		return graph.NodeSound
	case strings.HasPrefix(mime, "video/"):
		return graph.NodeVideo
	}
	return graph.NodeMedia
}

// generic types may be refined when a node is reached again with more
// context.
func generic(t graph.NodeType) bool {
	switch t {
	case graph.NodeUnknown, graph.NodeDictionary, graph.NodeStream, graph.NodeArray, graph.NodeValue:
		return true
	}
	return false
}

// significant reports whether a direct value of type t deserves its own
// node.
func significant(t graph.NodeType) bool {
	return !generic(t)
}

// backReference reports whether a reference under key points back up or
// across the structure.
func backReference(key string) bool {
	switch key {
	case "Parent", "P", "Prev":
		return true
	}
	return false
}
