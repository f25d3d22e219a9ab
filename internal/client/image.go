package client

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
)

// Defaults applied to image payloads that do not name themselves.
const (
	DefaultImageName = "upload.jpg"
	DefaultImageMIME = "image/jpeg"
)

// ImagePayload is an image attachment for item creation. It is built either
// from a file on disk or from bytes already in memory; the multipart builder
// treats both the same way.
type ImagePayload struct {
	name string
	mime string
	path string
	data []byte
}

// FromLocalPath returns a payload that streams the file at path.
func FromLocalPath(path, name, mime string) *ImagePayload {
	return &ImagePayload{path: path, name: name, mime: mime}
}

// FromBinaryData returns a payload backed by data.
func FromBinaryData(data []byte, name, mime string) *ImagePayload {
	if mime == "" {
		mime = sniffImageMIME(data)
	}
	return &ImagePayload{data: data, name: name, mime: mime}
}

// Name returns the file name sent with the upload.
func (p *ImagePayload) Name() string {
	if p.name == "" {
		return DefaultImageName
	}
	return p.name
}

// Path returns the local file path, or "" for in-memory payloads.
func (p *ImagePayload) Path() string {
	return p.path
}

// open returns a reader over the image bytes and the content type to send.
func (p *ImagePayload) open() (io.ReadCloser, string, error) {
	if p.path == "" {
		return io.NopCloser(bytes.NewReader(p.data)), p.mime, nil
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, "", fmt.Errorf("opening image: %w", err)
	}
	if p.mime != "" {
		return f, p.mime, nil
	}

	// Peek at the head of the file to detect the type without consuming it.
	br := bufio.NewReaderSize(f, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		f.Close()
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	return readCloser{Reader: br, Closer: f}, sniffImageMIME(head), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func sniffImageMIME(head []byte) string {
	detected := http.DetectContentType(head)
	if !strings.HasPrefix(detected, "image/") {
		return DefaultImageMIME
	}
	return detected
}

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// ResolveImageURL resolves a server-relative image path against origin.
// Empty values and values that already carry a URI scheme are returned as is.
func ResolveImageURL(origin, raw string) string {
	if raw == "" || schemePrefix.MatchString(raw) {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return strings.TrimRight(origin, "/") + raw
}
