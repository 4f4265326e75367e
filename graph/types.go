package graph

import (
	"fmt"

	"github.com/seifreed/PDF-AST-sub004/core"
)

// NodeID addresses a node in a Graph. IDs are dense and assigned in
// creation order starting at 0.
type NodeID int

// NodeType is the role a node plays in the document.
type NodeType int

const (
	NodeUnknown NodeType = iota
	NodeRoot             // trailer dictionary
	NodeCatalog
	NodePages
	NodePage
	NodeContentStream
	NodeResources
	NodeFont
	NodeFontDescriptor
	NodeImage
	NodeForm // form XObject
	NodeAction
	NodeJavaScriptAction
	NodeURIAction
	NodeLaunchAction
	NodeSubmitFormAction
	NodeImportDataAction
	NodeGoToRAction
	NodeGoToEAction
	NodeAnnotation
	NodeFileSpec
	NodeEmbeddedFile
	NodeSignature
	NodeAcroForm
	NodeXFA
	NodeXMPMetadata
	NodeRichMedia
	Node3D
	NodeSound
	NodeVideo
	NodeMedia
	NodeOutlines
	NodeOutlineItem
	NodeNames
	NodeInfo
	NodeEncrypt
	NodeDSS
	NodeObjectStream
	NodeXRefStream
	NodeStream
	NodeDictionary
	NodeArray
	NodeValue
)

var nodeTypeNames = [...]string{
	NodeUnknown:          "Unknown",
	NodeRoot:             "Root",
	NodeCatalog:          "Catalog",
	NodePages:            "Pages",
	NodePage:             "Page",
	NodeContentStream:    "ContentStream",
	NodeResources:        "Resources",
	NodeFont:             "Font",
	NodeFontDescriptor:   "FontDescriptor",
	NodeImage:            "Image",
	NodeForm:             "Form",
	NodeAction:           "Action",
	NodeJavaScriptAction: "JavaScriptAction",
	NodeURIAction:        "URIAction",
	NodeLaunchAction:     "LaunchAction",
	NodeSubmitFormAction: "SubmitFormAction",
	NodeImportDataAction: "ImportDataAction",
	NodeGoToRAction:      "GoToRAction",
	NodeGoToEAction:      "GoToEAction",
	NodeAnnotation:       "Annotation",
	NodeFileSpec:         "FileSpec",
	NodeEmbeddedFile:     "EmbeddedFile",
	NodeSignature:        "Signature",
	NodeAcroForm:         "AcroForm",
	NodeXFA:              "XFA",
	NodeXMPMetadata:      "Metadata",
	NodeRichMedia:        "RichMedia",
	Node3D:               "3D",
	NodeSound:            "Sound",
	NodeVideo:            "Video",
	NodeMedia:            "Media",
	NodeOutlines:         "Outlines",
	NodeOutlineItem:      "OutlineItem",
	NodeNames:            "Names",
	NodeInfo:             "Info",
	NodeEncrypt:          "Encrypt",
	NodeDSS:              "DSS",
	NodeObjectStream:     "ObjectStream",
	NodeXRefStream:       "XRefStream",
	NodeStream:           "Stream",
	NodeDictionary:       "Dictionary",
	NodeArray:            "Array",
	NodeValue:            "Value",
}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// IsAction reports whether t is one of the action types.
func (t NodeType) IsAction() bool {
	switch t {
	case NodeAction, NodeJavaScriptAction, NodeURIAction, NodeLaunchAction,
		NodeSubmitFormAction, NodeImportDataAction, NodeGoToRAction, NodeGoToEAction:
		return true
	}
	return false
}

// EdgeType tells how two nodes are related.
type EdgeType int

const (
	// EdgeChild is a resolved reference from a container to its content.
	EdgeChild EdgeType = iota
	// EdgeBackReference is a resolved /Parent, /P or /Prev link. These point
	// back up or across the tree and are not followed by traversals.
	EdgeBackReference
)

func (t EdgeType) String() string {
	if t == EdgeBackReference {
		return "BackReference"
	}
	return "Child"
}

// Edge is a resolved reference between two nodes. Key is the path of the
// reference inside the source value, such as "/Kids[0]".
type Edge struct {
	From NodeID
	To   NodeID
	Type EdgeType
	Key  string
}

// NodeMetadata holds what parsing learned about a node.
type NodeMetadata struct {
	// Offset of the object header in the file, or -1.
	Offset int64
	// Size of the object in bytes, 0 when unknown.
	Size int64
	// Object is the indirect object the node was built from; zero for
	// direct values.
	Object     core.ObjectID
	Warnings   []string
	Errors     []*core.Error
	Properties map[string]string
}

// Node is one typed value in the document graph. A node owns its value
// but never other nodes; relations are edges.
type Node struct {
	ID       NodeID
	Type     NodeType
	Value    core.Object
	Metadata NodeMetadata
}

// AddWarning appends a formatted warning.
func (n *Node) AddWarning(format string, args ...interface{}) {
	n.Metadata.Warnings = append(n.Metadata.Warnings, fmt.Sprintf(format, args...))
}

// AddError appends a structured error.
func (n *Node) AddError(err *core.Error) {
	n.Metadata.Errors = append(n.Metadata.Errors, err)
}

// HasErrors reports whether any error was recorded.
func (n *Node) HasErrors() bool {
	return len(n.Metadata.Errors) > 0
}

// SetProperty records a parser-derived fact.
func (n *Node) SetProperty(key, value string) {
	if n.Metadata.Properties == nil {
		n.Metadata.Properties = make(map[string]string)
	}
	n.Metadata.Properties[key] = value
}

// Property returns a property value.
func (n *Node) Property(key string) (string, bool) {
	v, ok := n.Metadata.Properties[key]
	return v, ok
}

// Dict returns the node's dictionary, or the dictionary of its stream.
func (n *Node) Dict() (core.Dict, bool) {
	switch v := n.Value.(type) {
	case core.Dict:
		return v, true
	case *core.Stream:
		return v.Dict, true
	}
	return nil, false
}

// Stream returns the node's value as a stream.
func (n *Node) Stream() (*core.Stream, bool) {
	s, ok := n.Value.(*core.Stream)
	return s, ok
}
