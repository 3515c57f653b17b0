package storefront_test

import (
	"encoding/base64"
	"testing"

	storefront "github.com/goliatone/go-storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidate(t *testing.T) {
	assert.Error(t, storefront.LoginRequest{}.Validate())
	assert.NoError(t, storefront.LoginRequest{Credential: "id-token"}.Validate())
}

func TestRefreshRequestValidate(t *testing.T) {
	assert.Error(t, storefront.RefreshRequest{}.Validate())
	assert.NoError(t, storefront.RefreshRequest{RefreshToken: "refresh-token"}.Validate())
}

func TestAssetPayload(t *testing.T) {
	t.Run("requires data and content type", func(t *testing.T) {
		assert.Error(t, storefront.AssetPayload{}.Validate())
		assert.Error(t, storefront.AssetPayload{Data: "aGk="}.Validate())
		assert.Error(t, storefront.AssetPayload{ContentType: "image/png"}.Validate())
		assert.NoError(t, storefront.AssetPayload{Data: "aGk=", ContentType: "image/png"}.Validate())
	})

	t.Run("decodes base64 payloads", func(t *testing.T) {
		payload := storefront.AssetPayload{
			Data:        base64.StdEncoding.EncodeToString([]byte("image-bytes")),
			ContentType: "image/png",
		}

		raw, err := payload.Decode()
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), raw)
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		payload := storefront.AssetPayload{
			Data:        "not base64!!!",
			ContentType: "image/png",
		}

		raw, err := payload.Decode()
		assert.Nil(t, raw)
		assert.Error(t, err)
	})
}
