package payment

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"paygateway/internal/pkg/ordered"
)

const soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// soapEnvelope renders an envelope whose body elements are written in the
// order they were added. Keys beginning with "@" become attributes of the
// enclosing element, "#text" sets its character data, and keys already
// carrying a prefix are written as is; every other key is qualified with
// prefix.
type soapEnvelope struct {
	prefix    string
	namespace string
	header    ordered.Map
	body      ordered.Map
}

func (e soapEnvelope) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<soapenv:Envelope xmlns:soapenv="%s" xmlns:%s="%s">`, soapEnvelopeNS, e.prefix, e.namespace)
	buf.WriteString("<soapenv:Header>")
	e.writeMap(&buf, e.header)
	buf.WriteString("</soapenv:Header>")
	buf.WriteString("<soapenv:Body>")
	e.writeMap(&buf, e.body)
	buf.WriteString("</soapenv:Body>")
	buf.WriteString("</soapenv:Envelope>")
	return buf.Bytes()
}

func (e soapEnvelope) name(key string) string {
	if strings.Contains(key, ":") {
		return key
	}
	return e.prefix + ":" + key
}

func (e soapEnvelope) writeMap(buf *bytes.Buffer, m ordered.Map) {
	for _, p := range m {
		if strings.HasPrefix(p.Key, "@") || p.Key == "#text" {
			continue
		}
		e.writeElement(buf, p.Key, p.Value)
	}
}

func (e soapEnvelope) writeElement(buf *bytes.Buffer, key string, value any) {
	name := e.name(key)
	switch v := value.(type) {
	case ordered.Map:
		buf.WriteString("<" + name)
		for _, p := range v {
			if strings.HasPrefix(p.Key, "@") {
				buf.WriteString(" " + strings.TrimPrefix(p.Key, "@") + `="`)
				_ = xml.EscapeText(buf, []byte(fmt.Sprint(p.Value)))
				buf.WriteByte('"')
			}
		}
		buf.WriteByte('>')
		if text, ok := v.Get("#text"); ok {
			_ = xml.EscapeText(buf, []byte(fmt.Sprint(text)))
		}
		e.writeMap(buf, v)
		buf.WriteString("</" + name + ">")
	case []string:
		for _, item := range v {
			e.writeElement(buf, key, item)
		}
	default:
		buf.WriteString("<" + name + ">")
		_ = xml.EscapeText(buf, []byte(fmt.Sprint(v)))
		buf.WriteString("</" + name + ">")
	}
}

// soapBody decodes the children of a SOAP Body into nested maps keyed by
// local element name. Leaves become strings; repeated siblings become
// []any. Single-child wrappers such as "NewOrderResponse/return" are
// unwrapped so callers see the reply fields directly.
func soapBody(doc []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("soap body not found")
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "Body" {
			v, err := decodeElement(dec)
			if err != nil {
				return nil, err
			}
			m, _ := v.(map[string]any)
			return unwrap(m), nil
		}
	}
}

func decodeElement(dec *xml.Decoder) (any, error) {
	children := map[string]any{}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec)
			if err != nil {
				return nil, err
			}
			key := t.Name.Local
			switch prev := children[key].(type) {
			case nil:
				children[key] = child
			case []any:
				children[key] = append(prev, child)
			default:
				children[key] = []any{prev, child}
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(children) == 0 {
				return strings.TrimSpace(text.String()), nil
			}
			return children, nil
		}
	}
}

func unwrap(m map[string]any) map[string]any {
	for len(m) == 1 {
		var next map[string]any
		for _, v := range m {
			next, _ = v.(map[string]any)
		}
		if next == nil {
			return m
		}
		m = next
	}
	return m
}

// soapFault returns the fault string when the body is a SOAP fault.
func soapFault(body map[string]any) (string, bool) {
	code, hasCode := body["faultcode"]
	if !hasCode {
		return "", false
	}
	if s, ok := body["faultstring"].(string); ok && s != "" {
		return s, true
	}
	return fmt.Sprint(code), true
}

// text returns the string value under key, or "".
func text(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// texts returns the string values under key whether it occurred once or
// several times.
func texts(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
