package webhook

import "github.com/xtergo/dnaresearch/pkg/apperr"

func errUnknownPartner(partnerID string) error {
	return apperr.Newf(apperr.Unauthorized, "partner %q not registered", partnerID)
}

var errInvalidSignature = apperr.New(apperr.Unauthorized, "webhook signature verification failed")

func errUnsupportedEvent(partnerID string, eventType EventType) error {
	return apperr.Newf(apperr.UnsupportedEvent, "partner %q does not support event type %q", partnerID, eventType)
}

func errEventNotFound(eventID string) error {
	return apperr.Newf(apperr.NotFound, "webhook event %q not found", eventID)
}
