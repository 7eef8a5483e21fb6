package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestThumbnailPublicID(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	suffix := "-1792054800"

	require.Equal(t, "go-concurrency-cover"+suffix, thumbnailPublicID("Go Concurrency  Cover.PNG", at))
	require.Equal(t, "cover"+suffix, thumbnailPublicID("../../cover.jpg", at))
	require.Equal(t, "thumbnail"+suffix, thumbnailPublicID("!!!.webp", at))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
