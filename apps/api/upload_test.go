package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mahaj/guestline/pkg/model"
)

func TestMediaType(t *testing.T) {
	cases := []struct {
		mime string
		want model.ContentType
		ok   bool
	}{
		{"image/png", model.ContentImage, true},
		{"image/jpeg", model.ContentImage, true},
		{"audio/webm", model.ContentAudio, true},
		{"video/mp4", model.ContentVideo, true},
		{"application/pdf", "", false},
		{"text/plain", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := mediaType(tc.mime)
		assert.Equal(t, tc.ok, ok, tc.mime)
		assert.Equal(t, tc.want, got, tc.mime)
	}
}
