package fetch

import (
	"bytes"
	"io"

	"golang.org/x/net/html/charset"
)

// ToUTF8 transcodes an HTML body using the Content-Type header and <meta charset>
// hints. The body is returned unchanged when the encoding cannot be determined.
func ToUTF8(body []byte, contentType string) []byte {
	if len(body) == 0 {
		return body
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}
