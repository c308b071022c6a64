package xml

import "github.com/beevik/etree"

// Namespace definitions for CalDAV and WebDAV
const (
	// DAV is the WebDAV namespace
	DAV = "DAV:"
	// CalDAV is the CalDAV namespace
	CalDAV = "urn:ietf:params:xml:ns:caldav"
)

// Prefixes used when writing request documents
const (
	PrefixDAV    = "D"
	PrefixCalDAV = "C"
)

// AddNamespaces declares the WebDAV and CalDAV prefixes on the document root
func AddNamespaces(doc *etree.Document) {
	root := doc.Root()
	if root == nil {
		return
	}
	root.CreateAttr("xmlns:"+PrefixDAV, DAV)
	root.CreateAttr("xmlns:"+PrefixCalDAV, CalDAV)
}

func davTag(local string) string {
	return PrefixDAV + ":" + local
}

func caldavTag(local string) string {
	return PrefixCalDAV + ":" + local
}
