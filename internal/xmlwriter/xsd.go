package xmlwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
)

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD creates an XSD describing the documents Generate writes for s.
//
// Every column element is always present. A column is typed by its rules
// only when it is also required, because optional columns may be empty.
//
//	| Rule      | XSD type                          |
//	|-----------|-----------------------------------|
//	| date      | xs:date                           |
//	| numeric   | xs:decimal                        |
//	| digits(n) | xs:string, pattern [0-9]{n}       |
//	| alpha     | xs:string, pattern [A-Za-z]+      |
//	| name      | xs:string, pattern [A-Za-z ]+     |
func GenerateXSD(s *schema.Schema) []byte {
	options := DefaultGenerateOptions()

	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	// Root element definition.
	buffer.WriteString(fmt.Sprintf(`  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="1" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="id" type="xs:string" use="required"/>
      <xs:attribute name="profile" type="xs:string" use="required"/>
      <xs:attribute name="rows" type="xs:positiveInteger" use="required"/>
      <xs:attribute name="submittedAt" type="xs:dateTime"/>
    </xs:complexType>
  </xs:element>

`, options.RootElement, options.RowElement))

	// Row element definition.
	buffer.WriteString(fmt.Sprintf(`  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, options.RowElement))

	if _, ok := s.Column(s.BatchField); !ok {
		writeXSDElement(&buffer, config.ColumnConfig{Key: s.BatchField}, 4)
	}
	for _, col := range s.Columns {
		writeXSDElement(&buffer, col, 4)
	}

	buffer.WriteString(fmt.Sprintf(`      </xs:sequence>
      <xs:attribute name="%s" type="xs:positiveInteger" use="required"/>
    </xs:complexType>
  </xs:element>

</xs:schema>
`, options.RowIndexAttribute))

	return buffer.Bytes()
}

// writeXSDElement writes an XSD element definition.
func writeXSDElement(buffer *bytes.Buffer, col config.ColumnConfig, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)
	name := ElementName(col.Key)

	xsdType, pattern := "xs:string", ""
	if hasRule(col, config.RuleRequired) {
		xsdType, pattern = getXSDType(col)
	}

	if pattern == "" {
		buffer.WriteString(fmt.Sprintf("%s<xs:element name=\"%s\" type=\"%s\"/>\n", indent, name, xsdType))
		return
	}

	buffer.WriteString(fmt.Sprintf(`%s<xs:element name="%s">
%s  <xs:simpleType>
%s    <xs:restriction base="%s">
%s      <xs:pattern value="%s"/>
%s    </xs:restriction>
%s  </xs:simpleType>
%s</xs:element>
`, indent, name,
		indent, indent, xsdType,
		indent, escapeXML(pattern),
		indent, indent, indent))
}

// getXSDType maps a column's rules to an XSD type and optional pattern.
func getXSDType(col config.ColumnConfig) (string, string) {
	for _, r := range col.Rules {
		switch r.Type {
		case config.RuleDate:
			return "xs:date", ""
		case config.RuleNumeric:
			return "xs:decimal", ""
		case config.RuleDigits:
			return "xs:string", fmt.Sprintf("[0-9]{%d}", r.Length)
		case config.RuleAlpha:
			return "xs:string", "[A-Za-z]+"
		case config.RuleName:
			return "xs:string", "[A-Za-z ]+"
		}
	}
	return "xs:string", ""
}

func hasRule(col config.ColumnConfig, ruleType string) bool {
	for _, r := range col.Rules {
		if r.Type == ruleType {
			return true
		}
	}
	return false
}
