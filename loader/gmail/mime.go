package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

// parsedMessage is the part of an RFC 822 message the loader cares
// about: the first text/plain body and the headers that become record
// metadata.
type parsedMessage struct {
	Body        string
	ContentType string // media type of the top-level message
	Headers     mail.Header
}

// parseMIME decodes a raw RFC 822 message. Multipart messages are
// walked for the first text/plain part; a non-multipart message
// contributes its body only when it is text/plain itself, matching the
// behavior consumers expect from the Takeout-era loader.
func parseMIME(raw []byte) (*parsedMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse rfc822 message: %w", err)
	}

	contentType := msg.Header.Get("Content-Type")
	mediaType := "text/plain"
	var params map[string]string
	if contentType != "" {
		mediaType, params, err = mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("parse content type %q: %w", contentType, err)
		}
	}

	parsed := &parsedMessage{
		ContentType: mediaType,
		Headers:     msg.Header,
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		body, err := findPlainPart(msg.Body, params["boundary"])
		if err != nil {
			return nil, err
		}
		parsed.Body = body
		return parsed, nil
	}

	if mediaType == "text/plain" {
		body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return nil, err
		}
		parsed.Body = body
	}

	return parsed, nil
}

// findPlainPart walks a multipart body, descending into nested
// multiparts, and returns the first text/plain part decoded
func findPlainPart(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart message without boundary")
	}

	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("read multipart body: %w", err)
		}

		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			nested, err := findPlainPart(part, params["boundary"])
			if err != nil {
				return "", err
			}
			if nested != "" {
				return nested, nil
			}
			continue
		}

		if mediaType == "text/plain" {
			return decodeBody(part, transferEncoding(part.Header))
		}
	}
}

func transferEncoding(header textproto.MIMEHeader) string {
	return header.Get("Content-Transfer-Encoding")
}

// decodeBody applies the Content-Transfer-Encoding
func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		// the base64 decoder skips CR/LF, wrapped bodies are fine
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode message body: %w", err)
	}
	return string(data), nil
}

// decodeHeader decodes RFC 2047 encoded words, falling back to the raw
// value when decoding fails
func decodeHeader(value string) string {
	decoder := &mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
