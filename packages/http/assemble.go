package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/abdul-hamid-achik/hitpost/packages/form"
	"golang.org/x/net/http/httpguts"
)

var standardMethods = map[string]string{
	http.MethodGet:     http.MethodGet,
	http.MethodPost:    http.MethodPost,
	http.MethodPut:     http.MethodPut,
	http.MethodDelete:  http.MethodDelete,
	http.MethodPatch:   http.MethodPatch,
	http.MethodHead:    http.MethodHead,
	http.MethodOptions: http.MethodOptions,
}

// ResolveMethod upper-cases method and checks that it is a valid HTTP token.
func ResolveMethod(method string) (string, error) {
	upper := strings.ToUpper(method)
	if m, ok := standardMethods[upper]; ok {
		return m, nil
	}
	if !httpguts.ValidHeaderFieldName(upper) {
		return "", invalidMethod(method)
	}
	return upper, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

// Assemble builds the transport request for req. It performs no I/O.
func Assemble(ctx context.Context, req *Request) (*http.Request, error) {
	method, err := ResolveMethod(req.Method)
	if err != nil {
		return nil, err
	}

	if err := ValidateURL(req.URL); err != nil {
		return nil, requestFailed(err)
	}

	encoded, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, encoded.reader)
	if err != nil {
		return nil, requestFailed(err)
	}

	for k, v := range req.Headers {
		// net/http ignores Host in Header.
		if strings.EqualFold(k, "Host") {
			httpReq.Host = v
			continue
		}
		httpReq.Header.Add(k, v)
	}

	if encoded.contentType != "" {
		if encoded.override || !req.HasHeader("Content-Type") {
			httpReq.Header.Set("Content-Type", encoded.contentType)
		}
	}

	return httpReq, nil
}

type encodedBody struct {
	reader      io.Reader
	contentType string
	// override replaces a caller-supplied Content-Type.
	override bool
}

func encodeBody(req *Request) (encodedBody, error) {
	switch b := req.Body.(type) {
	case TextBody:
		return encodedBody{reader: strings.NewReader(b.Content)}, nil
	case FormBody:
		return encodeForm(b)
	case BinaryBody:
		data, err := base64.StdEncoding.DecodeString(b.Data)
		if err != nil {
			return encodedBody{}, invalidBase64(err)
		}
		return encodedBody{
			reader:      bytes.NewReader(data),
			contentType: DetectContentType(data),
		}, nil
	}
	return encodedBody{}, nil
}

func encodeForm(b FormBody) (encodedBody, error) {
	switch b.Subtype {
	case FormURLEncoded:
		pairs := form.ParseURLEncoded(b.Content)
		return encodedBody{
			reader:      strings.NewReader(form.Encode(pairs)),
			contentType: "application/x-www-form-urlencoded",
			override:    true,
		}, nil
	case FormMultipart:
		body, contentType, err := BuildMultipartBody(form.ParseMultipart(b.Content))
		if err != nil {
			return encodedBody{}, requestFailed(err)
		}
		return encodedBody{reader: body, contentType: contentType, override: true}, nil
	default:
		return encodedBody{reader: strings.NewReader(b.Content)}, nil
	}
}

// BuildMultipartBody writes pairs as multipart/form-data text fields.
func BuildMultipartBody(pairs []form.Pair) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, p := range pairs {
		if err := writer.WriteField(p.Key, p.Value); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
