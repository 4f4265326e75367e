package resolver

import (
	"testing"

	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	name := func(s string) core.Name { return core.Name(s) }
	stream := func(d core.Dict) *core.Stream { return core.NewStream(d, nil) }

	tests := []struct {
		name string
		v    core.Object
		ctx  Context
		want graph.NodeType
	}{
		{"catalog by type", core.Dict{"Type": name("Catalog")}, Context{}, graph.NodeCatalog},
		{"catalog by key", core.Dict{"Pages": core.IndirectRef{Number: 2}}, Context{Key: "Root", Parent: graph.NodeRoot}, graph.NodeCatalog},
		{"root key elsewhere", core.Dict{}, Context{Key: "Root", Parent: graph.NodePage}, graph.NodeDictionary},
		{"info", core.Dict{"Title": core.NewString("x")}, Context{Key: "Info", Parent: graph.NodeRoot}, graph.NodeInfo},
		{"encrypt", core.Dict{"Filter": name("Standard")}, Context{Key: "Encrypt", Parent: graph.NodeRoot}, graph.NodeEncrypt},
		{"untyped kid page", core.Dict{"MediaBox": core.Array{}}, Context{Key: "Kids", Parent: graph.NodePages}, graph.NodePage},
		{"untyped kid pages", core.Dict{"Kids": core.Array{}}, Context{Key: "Kids", Parent: graph.NodePages}, graph.NodePages},
		{"javascript", core.Dict{"S": name("JavaScript")}, Context{Key: "OpenAction"}, graph.NodeJavaScriptAction},
		{"typed action", core.Dict{"Type": name("Action"), "S": name("Launch")}, Context{}, graph.NodeLaunchAction},
		{"submit form", core.Dict{"S": name("SubmitForm")}, Context{Key: "A"}, graph.NodeSubmitFormAction},
		{"import data", core.Dict{"S": name("ImportData")}, Context{Key: "Next"}, graph.NodeImportDataAction},
		{"gotor", core.Dict{"S": name("GoToR")}, Context{Key: "A"}, graph.NodeGoToRAction},
		{"gotoe", core.Dict{"S": name("GoToE")}, Context{Key: "A"}, graph.NodeGoToEAction},
		{"plain goto", core.Dict{"S": name("GoTo")}, Context{Key: "A"}, graph.NodeAction},
		{"aa trigger", core.Dict{"S": name("URI")}, Context{Key: "O", Path: "/AA/O"}, graph.NodeURIAction},
		{"s without action context", core.Dict{"S": name("URI")}, Context{Key: "X"}, graph.NodeDictionary},
		{"name tree javascript", core.Dict{"S": name("JavaScript"), "JS": core.NewString("1")}, Context{Key: "Names", Path: "/JavaScript/Names[1]"}, graph.NodeJavaScriptAction},
		{"link annotation", core.Dict{"Type": name("Annot"), "Subtype": name("Link")}, Context{}, graph.NodeAnnotation},
		{"untyped annotation", core.Dict{"Subtype": name("Widget")}, Context{Key: "Annots"}, graph.NodeAnnotation},
		{"richmedia annotation", core.Dict{"Subtype": name("RichMedia")}, Context{Key: "Annots"}, graph.NodeRichMedia},
		{"3d annotation", core.Dict{"Type": name("Annot"), "Subtype": name("3D")}, Context{}, graph.Node3D},
		{"movie annotation", core.Dict{"Type": name("Annot"), "Subtype": name("Movie")}, Context{}, graph.NodeVideo},
		{"richmedia settings", core.Dict{"Type": name("RichMediaSettings")}, Context{}, graph.NodeRichMedia},
		{"audio clip", core.Dict{"Type": name("MediaClip"), "CT": core.NewString("audio/mpeg")}, Context{}, graph.NodeSound},
		{"video clip", core.Dict{"Type": name("MediaClip"), "CT": core.NewString("Video/MP4")}, Context{}, graph.NodeVideo},
		{"rendition", core.Dict{"S": name("Rendition")}, Context{Key: "A"}, graph.NodeMedia},
		{"filespec", core.Dict{"Type": name("Filespec")}, Context{}, graph.NodeFileSpec},
		{"filespec by ef", core.Dict{"EF": core.Dict{}}, Context{}, graph.NodeFileSpec},
		{"signature", core.Dict{"Type": name("Sig")}, Context{}, graph.NodeSignature},
		{"untyped signature", core.Dict{"ByteRange": core.Array{}, "Contents": core.NewString(""), "Filter": name("Adobe.PPKLite")}, Context{Key: "V"}, graph.NodeSignature},
		{"acroform", core.Dict{"Fields": core.Array{}}, Context{Key: "AcroForm"}, graph.NodeAcroForm},
		{"outline item", core.Dict{"Title": core.NewString("a")}, Context{Key: "First", Parent: graph.NodeOutlines}, graph.NodeOutlineItem},
		{"names", core.Dict{}, Context{Key: "Names", Parent: graph.NodeCatalog}, graph.NodeNames},
		{"dss", core.Dict{"Certs": core.Array{}}, Context{Key: "DSS"}, graph.NodeDSS},
		{"resources", core.Dict{}, Context{Key: "Resources"}, graph.NodeResources},
		{"font descriptor", core.Dict{"Type": name("FontDescriptor")}, Context{}, graph.NodeFontDescriptor},
		{"xfa array", core.Array{}, Context{Key: "XFA"}, graph.NodeXFA},
		{"array", core.Array{}, Context{Key: "Kids"}, graph.NodeArray},
		{"scalar", core.Int(3), Context{}, graph.NodeValue},
		{"nil", nil, Context{}, graph.NodeUnknown},

		{"object stream", stream(core.Dict{"Type": name("ObjStm")}), Context{}, graph.NodeObjectStream},
		{"xref stream", stream(core.Dict{"Type": name("XRef")}), Context{}, graph.NodeXRefStream},
		{"metadata", stream(core.Dict{"Type": name("Metadata"), "Subtype": name("XML")}), Context{}, graph.NodeXMPMetadata},
		{"image", stream(core.Dict{"Subtype": name("Image")}), Context{}, graph.NodeImage},
		{"form xobject", stream(core.Dict{"Subtype": name("Form")}), Context{}, graph.NodeForm},
		{"u3d", stream(core.Dict{"Subtype": name("U3D")}), Context{}, graph.Node3D},
		{"content", stream(core.Dict{}), Context{Key: "Contents", Parent: graph.NodePage}, graph.NodeContentStream},
		{"contents elsewhere", stream(core.Dict{}), Context{Key: "Contents", Parent: graph.NodeAnnotation}, graph.NodeStream},
		{"embedded file by path", stream(core.Dict{}), Context{Key: "F", Path: "/EF/F"}, graph.NodeEmbeddedFile},
		{"xfa stream", stream(core.Dict{}), Context{Key: "XFA"}, graph.NodeXFA},
		{"plain stream", stream(core.Dict{}), Context{}, graph.NodeStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.v, tt.ctx))
		})
	}
}

func TestTypeRefinement(t *testing.T) {
	assert.True(t, generic(graph.NodeDictionary))
	assert.True(t, generic(graph.NodeUnknown))
	assert.False(t, generic(graph.NodePage))
	assert.True(t, significant(graph.NodeXFA))
	assert.True(t, backReference("Parent"))
	assert.False(t, backReference("Kids"))
}
