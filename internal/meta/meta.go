package meta

import (
	"context"
	"strings"
)

const (
	TypeURL   = "url"
	TypePDF   = "pdf"
	TypeImage = "image"

	ExtPNG  = "png"
	ExtJPEG = "jpeg"
)

type (
	// Metadata is the result of a single page fetch. It lives for one
	// request only and is never persisted as-is.
	Metadata struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Headers     map[string]string `json:"headers"`
	}

	// Resolver fetches title, description and response headers for a URL.
	Resolver interface {
		Resolve(ctx context.Context, url string) (Metadata, error)
	}
)

// ContentType returns the content-type header without parameters.
func (m Metadata) ContentType() string {
	ct := ""
	for k, v := range m.Headers {
		if strings.EqualFold(k, "content-type") {
			ct = v
			break
		}
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// Classify maps a fetched content-type to a link type and, for images,
// the extension of the eventual archived file. When no URL was given the
// caller-declared type wins, defaulting to "url".
func Classify(hasURL bool, declaredType string, contentType string) (linkType, imageExt string) {
	linkType = TypeURL
	imageExt = ExtPNG

	if !hasURL {
		if declaredType != "" {
			linkType = declaredType
		}
		return linkType, imageExt
	}

	switch {
	case contentType == "application/pdf":
		linkType = TypePDF
	case strings.HasPrefix(contentType, "image"):
		linkType = TypeImage
		if contentType == "image/jpeg" {
			imageExt = ExtJPEG
		}
	}
	return linkType, imageExt
}
