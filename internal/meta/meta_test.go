package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name         string
		hasURL       bool
		declaredType string
		contentType  string
		wantType     string
		wantExt      string
	}{
		{"html page", true, "", "text/html", TypeURL, ExtPNG},
		{"pdf", true, "", "application/pdf", TypePDF, ExtPNG},
		{"png image", true, "", "image/png", TypeImage, ExtPNG},
		{"jpeg image", true, "", "image/jpeg", TypeImage, ExtJPEG},
		{"gif image defaults to png extension", true, "", "image/gif", TypeImage, ExtPNG},
		{"no url honors declared type", false, "note", "", "note", ExtPNG},
		{"no url no declared type", false, "", "", TypeURL, ExtPNG},
		{"declared type ignored when url present", true, "note", "text/html", TypeURL, ExtPNG},
		{"unknown content type", true, "", "application/octet-stream", TypeURL, ExtPNG},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotExt := Classify(tc.hasURL, tc.declaredType, tc.contentType)
			assert.Equal(t, tc.wantType, gotType)
			assert.Equal(t, tc.wantExt, gotExt)
		})
	}
}

func TestContentType(t *testing.T) {
	m := Metadata{Headers: map[string]string{"content-type": "text/html; charset=utf-8"}}
	assert.Equal(t, "text/html", m.ContentType())

	m = Metadata{Headers: map[string]string{"Content-Type": "application/pdf"}}
	assert.Equal(t, "application/pdf", m.ContentType())

	m = Metadata{}
	assert.Equal(t, "", m.ContentType())
}
