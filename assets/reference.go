package assets

import "strings"

// Origin records who put an asset where it lives: uploaded means this system
// wrote it to its own object store, external means the URL points somewhere
// we do not manage (typically the identity provider's CDN).
type Origin = string

const (
	// OriginUploaded marks assets written through the coordinator
	OriginUploaded Origin = "uploaded"
	// OriginExternal marks URLs mirrored from outside systems
	OriginExternal Origin = "external"
)

// Well-known namespaces. A namespace maps to a prefix inside the bucket.
const (
	NamespaceAvatars    = "avatars"
	NamespaceCategories = "categories"
	NamespaceBanners    = "banners"
	NamespaceProducts   = "products"
)

// managedURLMarker appears in every URL the object store hands back.
const managedURLMarker = "/storefront/"

// Reference identifies a stored asset well enough to replace or delete it.
type Reference struct {
	URL        string `json:"url"`
	ExternalID string `json:"external_id,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Origin     Origin `json:"origin,omitempty"`
}

// Managed reports whether the reference points at an object this system owns
// and is therefore allowed to delete.
func (r Reference) Managed() bool {
	if r.Origin != "" {
		return r.Origin == OriginUploaded
	}
	return InferOrigin(r.URL) == OriginUploaded
}

// InferOrigin classifies a URL by shape. It exists only as a migration
// fallback for rows written before the origin column; new writes always carry
// an explicit tag.
func InferOrigin(url string) Origin {
	if url == "" {
		return OriginExternal
	}
	if strings.Contains(url, managedURLMarker) {
		return OriginUploaded
	}
	return OriginExternal
}
