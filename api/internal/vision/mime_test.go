package vision

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	plain := base64.StdEncoding.EncodeToString([]byte("img-bytes"))

	b, mime, err := DecodeBase64MaybeDataURL(plain)
	require.NoError(t, err)
	assert.Equal(t, []byte("img-bytes"), b)
	assert.Empty(t, mime)

	b, mime, err = DecodeBase64MaybeDataURL("data:image/png;base64," + plain)
	require.NoError(t, err)
	assert.Equal(t, []byte("img-bytes"), b)
	assert.Equal(t, "image/png", mime)

	_, _, err = DecodeBase64MaybeDataURL("%%% not base64 %%%")
	assert.Error(t, err)
}

func TestPickMIME(t *testing.T) {
	jpegHeader := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}

	assert.Equal(t, "image/webp", PickMIME("image/webp", "image/png", jpegHeader))
	assert.Equal(t, "image/png", PickMIME("", "image/png", jpegHeader))
	assert.Equal(t, "image/jpeg", PickMIME("", "", jpegHeader))
	assert.Equal(t, "image/jpeg", PickMIME("", "", nil))
}
