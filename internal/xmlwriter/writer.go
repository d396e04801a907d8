// =============================================================================
// Payroll Batch Importer - XML Writer Module
// =============================================================================
//
// This module renders a processed batch as an XML document for the payment
// backend's file drop.
//
// XML STRUCTURE:
//
//   <batch id="BATCH-MGT3K1Q2" profile="payments" rows="2" submittedAt="...">
//     <row n="1">                        <!-- Row element with 1-based index -->
//       <batchId>BATCH-MGT3K1Q2</batchId>
//       <date>2026-10-16</date>
//       <debitAmount>1500.00</debitAmount>
//       <remarks/>                       <!-- Empty values self-close -->
//     </row>
//     <row n="2">
//       ...
//     </row>
//   </batch>
//
// Field elements follow the submission's column order. Column keys that are
// not valid XML names have the offending characters replaced by '_'.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement is the name of the root element.
	// Default: "batch"
	RootElement string

	// RowElement is the name of each row element.
	// Default: "row"
	RowElement string

	// RowIndexAttribute is the attribute name for the row index.
	// Default: "n"
	RowIndexAttribute string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "batch",
		RowElement:            "row",
		RowIndexAttribute:     "n",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders sub with the default options.
func Generate(sub types.Submission) []byte {
	return GenerateWithOptions(sub, DefaultGenerateOptions())
}

// GenerateWithOptions renders sub.
//
// GENERATION PROCESS:
//  1. Create the root element with batch attributes
//  2. For each row, create a row element with its index attribute
//  3. Add one child per column in submission order
//  4. Write the document with indentation
func GenerateWithOptions(sub types.Submission, options GenerateOptions) []byte {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	buildDocument(sub, options).write(&buffer, options.Indent, 0)

	return buffer.Bytes()
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// element is one node of the output tree. An element holds either text or
// children, never both.
type element struct {
	name     string
	attrs    [][2]string
	text     string
	children []element
}

// buildDocument constructs the XML document structure.
func buildDocument(sub types.Submission, options GenerateOptions) element {
	root := element{
		name: options.RootElement,
		attrs: [][2]string{
			{"id", sub.BatchID},
			{"profile", sub.Profile},
			{"rows", strconv.Itoa(len(sub.Rows))},
		},
		children: make([]element, 0, len(sub.Rows)),
	}
	if !sub.SubmittedAt.IsZero() {
		root.attrs = append(root.attrs, [2]string{"submittedAt", sub.SubmittedAt.Format(time.RFC3339)})
	}

	names := make([]string, len(sub.Columns))
	for i, col := range sub.Columns {
		names[i] = ElementName(col)
	}

	for i, row := range sub.Rows {
		r := element{
			name:     options.RowElement,
			attrs:    [][2]string{{options.RowIndexAttribute, strconv.Itoa(i + 1)}},
			children: make([]element, len(sub.Columns)),
		}
		for j, col := range sub.Columns {
			r.children[j] = element{name: names[j], text: row[col]}
		}
		root.children = append(root.children, r)
	}

	return root
}

// write renders e at the given depth. Empty elements self-close.
func (e element) write(buf *bytes.Buffer, indent string, depth int) {
	pad := strings.Repeat(indent, depth)

	buf.WriteString(pad + "<" + e.name)
	for _, a := range e.attrs {
		fmt.Fprintf(buf, ` %s="%s"`, a[0], escapeXML(a[1]))
	}

	switch {
	case e.text == "" && len(e.children) == 0:
		buf.WriteString("/>\n")
		return
	case len(e.children) == 0:
		buf.WriteString(">" + escapeXML(e.text))
	default:
		buf.WriteString(">\n")
		for _, child := range e.children {
			child.write(buf, indent, depth+1)
		}
		buf.WriteString(pad)
	}
	buf.WriteString("</" + e.name + ">\n")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeXML escapes the five predefined XML entities and replaces characters
// XML 1.0 does not allow with U+FFFD.
func escapeXML(s string) string {
	return xmlEscaper.Replace(strings.Map(xmlChar, s))
}

// xmlChar maps r to itself when it is in the XML 1.0 Char production.
func xmlChar(r rune) rune {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
	case r >= 0x20 && r <= 0xD7FF:
	case r >= 0xE000 && r <= 0xFFFD:
	case r >= 0x10000 && r <= 0x10FFFF:
	default:
		return '\uFFFD'
	}
	return r
}

// ElementName turns a column key into a valid XML element name.
func ElementName(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
