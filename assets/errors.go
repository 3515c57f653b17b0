package assets

import "github.com/goliatone/go-errors"

const (
	TextCodeUploadFailed = "asset_upload_failed"
	TextCodeDeleteFailed = "asset_delete_failed"
)

// ErrUploadFailed is returned when the object store rejects a write.
var ErrUploadFailed = errors.New("asset upload failed", errors.CategoryOperation).
	WithTextCode(TextCodeUploadFailed).
	WithCode(errors.CodeInternal)

// ErrDeleteFailed is returned when a requested (non-compensating) external
// delete fails.
var ErrDeleteFailed = errors.New("asset delete failed", errors.CategoryOperation).
	WithTextCode(TextCodeDeleteFailed).
	WithCode(errors.CodeInternal)
