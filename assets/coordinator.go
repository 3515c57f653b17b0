package assets

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// compensationAttempts bounds the synchronous cleanup of a just-uploaded
// object after the paired row write fails: one initial attempt plus one
// retry. Anything still failing after that is logged as an orphan.
const compensationAttempts = 2

// Coordinator sequences object-store writes against database writes so that
// no row ever references an object that was never written. Ordering is the
// whole mechanism: upload first, persist second, compensate on failure.
// Everything runs inline on the caller's goroutine; there is no queue and no
// background repair.
//
// The coordinator performs no authorization. Callers gate access before any
// of these methods run.
type Coordinator struct {
	store  ObjectStore
	logger Logger
}

// NewCoordinator creates a Coordinator over the given object store.
func NewCoordinator(store ObjectStore, logger Logger) *Coordinator {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Coordinator{
		store:  store,
		logger: logger,
	}
}

// Create uploads payload and then runs persist with the resulting reference.
// If persist fails the uploaded object is deleted again (bounded retry) and
// the persist error is returned. A failed compensation leaves an orphaned
// object: harmless, invisible to users, reported at warn level for offline
// cleanup.
func (c *Coordinator) Create(ctx context.Context, namespace, contentType string, payload io.Reader, size int64, persist func(ctx context.Context, ref Reference) error) (Reference, error) {
	ref, err := c.upload(ctx, namespace, contentType, payload, size)
	if err != nil {
		return Reference{}, err
	}

	if err := persist(ctx, ref); err != nil {
		c.compensate(ctx, ref)
		return Reference{}, err
	}

	return ref, nil
}

// Replace uploads the new payload, runs update with the new reference, and
// only then removes the previous object. An upload failure returns before
// the row is touched, so the record keeps pointing at the old, still-valid
// object. Removal of the old object is best effort: a failure orphans a
// blob but never breaks the already-updated record.
func (c *Coordinator) Replace(ctx context.Context, namespace, contentType string, payload io.Reader, size int64, previous Reference, update func(ctx context.Context, ref Reference) error) (Reference, error) {
	ref, err := c.upload(ctx, namespace, contentType, payload, size)
	if err != nil {
		return Reference{}, err
	}

	if err := update(ctx, ref); err != nil {
		c.compensate(ctx, ref)
		return Reference{}, err
	}

	if previous.Managed() && previous.ExternalID != "" {
		if err := c.store.Delete(ctx, previous.ExternalID); err != nil && !errors.IsNotFound(err) {
			c.logger.Warn("replaced asset left orphaned object: namespace=%s external_id=%s err=%v",
				namespace, previous.ExternalID, err)
		}
	}

	return ref, nil
}

// Delete removes the external object (when managed) and then runs removeRow.
// The row is removed regardless of the external outcome: local consistency
// wins, and an undeletable remote object degrades to a logged orphan rather
// than a row that users can still see.
func (c *Coordinator) Delete(ctx context.Context, current Reference, removeRow func(ctx context.Context) error) error {
	if current.Managed() && current.ExternalID != "" {
		if err := c.store.Delete(ctx, current.ExternalID); err != nil && !errors.IsNotFound(err) {
			c.logger.Warn("asset delete left orphaned object: namespace=%s external_id=%s err=%v",
				current.Namespace, current.ExternalID, err)
		}
	}

	return removeRow(ctx)
}

func (c *Coordinator) upload(ctx context.Context, namespace, contentType string, payload io.Reader, size int64) (Reference, error) {
	name := ObjectName(namespace)

	ref, err := c.store.Put(ctx, payload, size, name, contentType)
	if err != nil {
		return Reference{}, errors.Wrap(err, ErrUploadFailed.Category, ErrUploadFailed.Message).
			WithTextCode(ErrUploadFailed.TextCode).
			WithMetadata(map[string]any{"namespace": namespace, "name": name})
	}

	ref.Namespace = namespace
	ref.Origin = OriginUploaded

	return ref, nil
}

// compensate undoes an upload whose paired row write failed. Absence counts
// as success, the object may have never fully landed.
func (c *Coordinator) compensate(ctx context.Context, ref Reference) {
	var lastErr error
	for attempt := 1; attempt <= compensationAttempts; attempt++ {
		lastErr = c.store.Delete(ctx, ref.ExternalID)
		if lastErr == nil || errors.IsNotFound(lastErr) {
			return
		}
	}

	c.logger.Warn("compensating delete failed, orphaned object: namespace=%s external_id=%s attempts=%d err=%v",
		ref.Namespace, ref.ExternalID, compensationAttempts, lastErr)
}

// ObjectName builds a collision-resistant object name under a namespace.
func ObjectName(namespace string) string {
	return fmt.Sprintf("%s/%s", namespace, uuid.NewString())
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
