package eventstore

import (
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// Sentinel errors for history store failures. Returned errors carry the same
// category and message, so errors.Is matches them.
var (
	ErrDatabaseOpenFailed     = dberrors.EventStoreError("could not open build history database").Build()
	ErrInitializeSchemaFailed = dberrors.EventStoreError("failed to initialize build history schema").Build()
	ErrEventAppendFailed      = dberrors.EventStoreError("failed to append build event").Build()
	ErrEventQueryFailed       = dberrors.EventStoreError("failed to query build events").Build()
	ErrEventScanFailed        = dberrors.EventStoreError("failed to scan build events").Build()
	ErrMarshalPayloadFailed   = dberrors.EventStoreError("failed to marshal build event payload").Build()
)

func wrap(sentinel *dberrors.ClassifiedError, err error) error {
	return dberrors.WrapError(err, dberrors.CategoryEventStore, sentinel.Message()).Build()
}
