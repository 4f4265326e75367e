package document

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/internal/logging"
	"github.com/seifreed/PDF-AST-sub004/pages"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/net/idna"
	"seehuhn.de/go/xmp"
)

// XMPStatus is the outcome of reading the catalog's metadata stream.
type XMPStatus string

const (
	XMPAbsent      XMPStatus = "absent"
	XMPValid       XMPStatus = "valid"
	XMPInvalid     XMPStatus = "invalid"     // not a readable XMP packet
	XMPUndecodable XMPStatus = "undecodable" // the filter chain failed
)

// Features flags the document features security tooling looks for.
type Features struct {
	JavaScript        bool
	OpenAction        bool
	AdditionalActions bool
	Launch            bool
	URI               bool
	SubmitForm        bool
	ImportData        bool
	RemoteGoTo        bool // GoToR
	EmbeddedGoTo      bool // GoToE
	EmbeddedFiles     bool
	AcroForm          bool
	XFA               bool
	Signatures        bool
	RichMedia         bool
	ThreeD            bool
	Multimedia        bool
}

// Counts tallies feature nodes in the graph.
type Counts struct {
	XFA           int // XFA packets
	RichMedia     int
	ThreeD        int
	Audio         int
	Video         int
	DSS           int
	JavaScript    int
	EmbeddedFiles int
	Annotations   int
	Signatures    int
}

// Metadata is the derived document summary.
type Metadata struct {
	Version       string
	PageCount     int
	Encrypted     bool
	Linearized    bool
	Repaired      bool
	Revisions     int
	ObjectStreams int
	Features      Features
	Counts        Counts
	// Info holds the text entries of the document information dictionary.
	Info map[string]string
	XMP  XMPStatus
}

// Analyze computes the metadata snapshot of d and records per-node facts
// as properties: "page_index" on pages, "uri_scheme", "uri_host" and
// "uri_host_ascii" on URI actions, and "xmp" on metadata streams. Running
// it again recomputes the same values.
func Analyze(d *Document) Metadata {
	log := logging.For(d.r.Logger(), "document")
	m := Metadata{
		Version:    d.Version(),
		Encrypted:  d.Trailer().Has("Encrypt"),
		Linearized: d.Linearized(),
		Repaired:   d.Repaired(),
		Revisions:  len(d.Revisions()),
		XMP:        XMPAbsent,
	}

	if tree, err := pages.New(d.g); err == nil {
		d.pages = tree
		m.PageCount = tree.Count()
		if m.PageCount == 0 {
			if n, ok := tree.DeclaredCount(); ok && n > 0 {
				m.PageCount = n
			}
		}
	}

	limits := d.r.Limits()
	for _, n := range d.g.Nodes() {
		tally(&m, n)
		switch n.Type {
		case graph.NodeURIAction:
			describeURI(n, log)
		case graph.NodeXMPMetadata:
			readXMP(n, limits, log)
		}
		if dict, ok := n.Dict(); ok && dict.Has("AA") {
			m.Features.AdditionalActions = true
		}
	}
	f := &m.Features
	c := m.Counts
	f.XFA = c.XFA > 0 || f.XFA
	f.RichMedia = c.RichMedia > 0
	f.ThreeD = c.ThreeD > 0
	f.EmbeddedFiles = c.EmbeddedFiles > 0 || f.EmbeddedFiles
	f.Signatures = c.Signatures > 0
	f.JavaScript = c.JavaScript > 0
	f.Multimedia = f.Multimedia || c.Audio > 0 || c.Video > 0

	if id, ok := d.Catalog(); ok {
		catalog, _ := d.g.Node(id)
		if dict, ok := catalog.Dict(); ok {
			f.OpenAction = dict.Has("OpenAction")
			if names, ok := d.g.Resolve(dict.Get("Names")).(core.Dict); ok && names.Has("EmbeddedFiles") {
				f.EmbeddedFiles = true
			}
		}
		for _, e := range d.g.OutEdges(id) {
			if e.Key != "/Metadata" {
				continue
			}
			if n, ok := d.g.Node(e.To); ok {
				if v, ok := n.Property("xmp"); ok {
					m.XMP = XMPStatus(v)
				}
			}
		}
	}

	if id, ok := d.Info(); ok {
		n, _ := d.g.Node(id)
		m.Info = infoText(d.g, n)
	}

	if lin := d.r.Linearization(); lin != nil {
		if id, ok := d.g.NodeByObject(lin.Object); ok {
			n, _ := d.g.Node(id)
			n.SetProperty("linearized_length_matches", strconv.FormatBool(lin.LengthMatches))
		}
	}

	d.metadata = m
	log.WithFields(logrus.Fields{
		"pages":     m.PageCount,
		"encrypted": m.Encrypted,
		"xmp":       m.XMP,
	}).Debug("document analyzed")
	return m
}

func tally(m *Metadata, n *graph.Node) {
	f, c := &m.Features, &m.Counts
	switch n.Type {
	case graph.NodeJavaScriptAction:
		c.JavaScript++
	case graph.NodeLaunchAction:
		f.Launch = true
	case graph.NodeURIAction:
		f.URI = true
	case graph.NodeSubmitFormAction:
		f.SubmitForm = true
	case graph.NodeImportDataAction:
		f.ImportData = true
	case graph.NodeGoToRAction:
		f.RemoteGoTo = true
	case graph.NodeGoToEAction:
		f.EmbeddedGoTo = true
	case graph.NodeEmbeddedFile:
		c.EmbeddedFiles++
	case graph.NodeAcroForm:
		f.AcroForm = true
		if d, ok := n.Dict(); ok && d.Has("XFA") {
			f.XFA = true
		}
	case graph.NodeXFA:
		if _, ok := n.Stream(); ok {
			c.XFA++
		}
	case graph.NodeSignature:
		c.Signatures++
	case graph.NodeRichMedia:
		c.RichMedia++
	case graph.Node3D:
		c.ThreeD++
	case graph.NodeSound:
		c.Audio++
	case graph.NodeVideo:
		c.Video++
	case graph.NodeMedia:
		f.Multimedia = true
	case graph.NodeDSS:
		c.DSS++
	case graph.NodeObjectStream:
		m.ObjectStreams++
	}
	if isAnnotation(n) {
		c.Annotations++
	}
}

func isAnnotation(n *graph.Node) bool {
	if n.Type == graph.NodeAnnotation {
		return true
	}
	d, ok := n.Dict()
	if !ok {
		return false
	}
	typ, _ := d.GetName("Type")
	return typ == "Annot"
}

// describeURI records the scheme and host of a URI action. Hosts are also
// given in their ASCII (punycode) form.
func describeURI(n *graph.Node, log logrus.FieldLogger) {
	d, _ := n.Dict()
	s, ok := d.GetString("URI")
	if !ok {
		return
	}
	raw := strings.TrimSpace(s.Text())
	u, err := url.Parse(raw)
	if err != nil {
		warnOnce(n, "URI does not parse: "+err.Error())
		return
	}
	if u.Scheme != "" {
		n.SetProperty("uri_scheme", strings.ToLower(u.Scheme))
	}
	host := u.Hostname()
	if host == "" {
		return
	}
	n.SetProperty("uri_host", host)
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		warnOnce(n, "URI host is not a valid domain name: "+err.Error())
		log.WithField("host", host).Debug("invalid URI host")
		return
	}
	n.SetProperty("uri_host_ascii", ascii)
}

// readXMP decodes a metadata stream under the decode limits and parses it
// as an XMP packet.
func readXMP(n *graph.Node, limits core.Limits, log logrus.FieldLogger) {
	s, ok := n.Stream()
	if !ok {
		return
	}
	data, err := s.DecodeWithLimits(limits.MaxDecodeSize, limits.MaxFilters)
	if err != nil {
		n.SetProperty("xmp", string(XMPUndecodable))
		warnOnce(n, "metadata stream does not decode: "+err.Error())
		return
	}
	packet, err := xmp.Read(bytes.NewReader(data))
	if err != nil {
		n.SetProperty("xmp", string(XMPInvalid))
		warnOnce(n, "metadata stream is not an XMP packet: "+err.Error())
		log.WithError(err).Debug("invalid XMP")
		return
	}
	n.SetProperty("xmp", string(XMPValid))

	dc := &xmp.DublinCore{}
	packet.Get(dc)
	n.SetProperty("xmp_title", strconv.FormatBool(!dc.Title.IsZero()))
}

func warnOnce(n *graph.Node, msg string) {
	if !slices.Contains(n.Metadata.Warnings, msg) {
		n.AddWarning("%s", msg)
	}
}

// infoText returns the text and name entries of an Info dictionary.
func infoText(g *graph.Graph, n *graph.Node) map[string]string {
	d, ok := n.Dict()
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, k := range d.Keys() {
		switch v := g.Resolve(d[k]).(type) {
		case core.String:
			out[k] = v.Text()
		case core.Name:
			out[k] = string(v)
		}
	}
	return out
}
