package core

import (
	"errors"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidateImage(t *testing.T) {
	cases := []struct {
		name string
		up   Upload
		want error
	}{
		{"declared png", Upload{ContentType: "image/png", Size: 1024}, nil},
		{"exactly 5MB", Upload{ContentType: "image/jpeg", Size: MaxImageSize}, nil},
		{"over 5MB", Upload{ContentType: "image/jpeg", Size: MaxImageSize + 1}, ErrImageTooLarge},
		{"pdf", Upload{ContentType: "application/pdf", Size: 10}, ErrNotAnImage},
		{"sniffed png", Upload{ContentType: "application/octet-stream", Data: pngHeader}, nil},
		{"sniffed text", Upload{Data: []byte("hello world")}, ErrNotAnImage},
		{"empty", Upload{ContentType: "image/png"}, ErrEmptyImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateImage(tc.up); !errors.Is(err, tc.want) {
				t.Fatalf("ValidateImage() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDetectImageTypeStripsParams(t *testing.T) {
	if got := DetectImageType(Upload{ContentType: "image/png; charset=binary"}); got != "image/png" {
		t.Fatalf("got %q", got)
	}
}
