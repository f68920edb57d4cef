package httpclient

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"paygateway/internal/pkg/chd"
)

// Recorder persists the masked wire text of one processor exchange.
type Recorder interface {
	RecordRequest(ctx context.Context, body string) error
	RecordResponse(ctx context.Context, body string) error
}

// Response is the unmasked processor reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Reason returns the standard status text, e.g. "Not Found".
func (r *Response) Reason() string {
	return http.StatusText(r.StatusCode)
}

// Sanitizer sends processor requests and records masked copies of both
// directions. Callers always get the unmasked response back.
type Sanitizer struct {
	client   *Client
	recorder Recorder
	values   []string
}

// Sanitized binds the client to an audit recorder and the values to scrub.
func (c *Client) Sanitized(recorder Recorder, values []string) *Sanitizer {
	return &Sanitizer{client: c, recorder: recorder, values: values}
}

// PostJSON posts an already encoded JSON document.
func (s *Sanitizer) PostJSON(ctx context.Context, endpoint string, body []byte, headers map[string]string) (*Response, error) {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return s.send(ctx, http.MethodPost, endpoint, body, unquote(string(body)), h, identity)
}

// PostForm posts form-encoded data. The recorded copy is URL-decoded.
func (s *Sanitizer) PostForm(ctx context.Context, endpoint string, form url.Values, headers map[string]string) (*Response, error) {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	for k, v := range headers {
		h[k] = v
	}
	encoded := form.Encode()
	return s.send(ctx, http.MethodPost, endpoint, []byte(encoded), unquote(encoded), h, identity)
}

// PostSOAP posts a SOAP envelope. Both recorded copies are pretty-printed XML.
func (s *Sanitizer) PostSOAP(ctx context.Context, endpoint, action string, envelope []byte) (*Response, error) {
	h := map[string]string{
		"Content-Type": "text/xml; charset=utf-8",
		"SOAPAction":   `"` + action + `"`,
	}
	return s.send(ctx, http.MethodPost, endpoint, envelope, PrettyXML([]byte(unquote(string(envelope)))), h, PrettyXML)
}

func (s *Sanitizer) send(
	ctx context.Context,
	method, endpoint string,
	body []byte,
	audit string,
	headers map[string]string,
	render func([]byte) string,
) (*Response, error) {
	if audit == "" {
		audit = pathOf(endpoint)
	}
	if err := s.recorder.RecordRequest(ctx, chd.Mask(audit, s.values)); err != nil {
		return nil, fmt.Errorf("record processor request: %w", err)
	}

	req := s.client.r.R().SetContext(ctx).SetHeaders(headers)
	if len(body) > 0 {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, err
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
	if err := s.recorder.RecordResponse(ctx, chd.Mask(render(out.Body), s.values)); err != nil {
		return out, fmt.Errorf("record processor response: %w", err)
	}
	return out, nil
}

// unquote percent-decodes a request body for its audit copy. '+' is kept
// as is, and text that is not validly escaped is recorded unchanged.
func unquote(body string) string {
	decoded, err := url.PathUnescape(body)
	if err != nil {
		return body
	}
	return decoded
}

func identity(b []byte) string {
	return string(b)
}

func pathOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.RequestURI()
}

// PrettyXML re-indents an XML document, keeping namespace prefixes as written.
// Malformed input is returned as is.
func PrettyXML(doc []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var buf bytes.Buffer
	depth := 0
	open := false
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return string(doc)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(strings.Repeat("  ", depth))
			buf.WriteString("<" + qualified(t.Name))
			for _, a := range t.Attr {
				buf.WriteString(" " + qualified(a.Name) + `="`)
				_ = xml.EscapeText(&buf, []byte(a.Value))
				buf.WriteByte('"')
			}
			buf.WriteByte('>')
			depth++
			open = true
		case xml.CharData:
			if text := bytes.TrimSpace(t); len(text) > 0 {
				_ = xml.EscapeText(&buf, text)
			}
		case xml.EndElement:
			depth--
			if !open {
				buf.WriteByte('\n')
				buf.WriteString(strings.Repeat("  ", depth))
			}
			buf.WriteString("</" + qualified(t.Name) + ">")
			open = false
		}
	}
	if depth != 0 {
		return string(doc)
	}
	return buf.String()
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
