package assets_test

import (
	"testing"

	"github.com/goliatone/go-storefront/assets"
	"github.com/stretchr/testify/assert"
)

func TestInferOrigin(t *testing.T) {
	testCases := []struct {
		name   string
		url    string
		origin assets.Origin
	}{
		{"empty url", "", assets.OriginExternal},
		{"provider cdn", "https://lh3.googleusercontent.com/photo.jpg", assets.OriginExternal},
		{"managed bucket", "https://cdn.example.com/storefront/avatars/abc.png", assets.OriginUploaded},
		{"local minio", "http://localhost:9000/storefront/banners/xyz.png", assets.OriginUploaded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.origin, assets.InferOrigin(tc.url))
		})
	}
}

func TestReferenceManaged(t *testing.T) {
	t.Run("explicit origin wins over url shape", func(t *testing.T) {
		ref := assets.Reference{
			URL:    "https://lh3.googleusercontent.com/photo.jpg",
			Origin: assets.OriginUploaded,
		}
		assert.True(t, ref.Managed())

		ref.Origin = assets.OriginExternal
		ref.URL = "https://cdn.example.com/storefront/avatars/abc.png"
		assert.False(t, ref.Managed())
	})

	t.Run("untagged rows fall back to url inference", func(t *testing.T) {
		ref := assets.Reference{URL: "https://cdn.example.com/storefront/avatars/abc.png"}
		assert.True(t, ref.Managed())

		ref = assets.Reference{URL: "https://lh3.googleusercontent.com/photo.jpg"}
		assert.False(t, ref.Managed())

		ref = assets.Reference{}
		assert.False(t, ref.Managed())
	})
}
