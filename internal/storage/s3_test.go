package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://avatars.s3.eu-central-1.amazonaws.com",
		PublicBaseURL(S3Config{Bucket: "avatars", Region: "eu-central-1"}))
	assert.Equal(t, "http://localhost:9000/avatars",
		PublicBaseURL(S3Config{Bucket: "avatars", Region: "us-east-1", Endpoint: "http://localhost:9000/"}))
}

func TestKeyFromURL(t *testing.T) {
	base := "http://localhost:9000/avatars"

	key, ok := KeyFromURL(base, base+"/avatars/u1/a.png")
	assert.True(t, ok)
	assert.Equal(t, "avatars/u1/a.png", key)

	_, ok = KeyFromURL(base, "https://cdn.example.com/a.png")
	assert.False(t, ok)

	_, ok = KeyFromURL(base, base+"/")
	assert.False(t, ok)
}
