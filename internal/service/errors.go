package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"golang.org/x/text/language"

	"github.com/mmynk/spendilog/internal/currency"
	"github.com/mmynk/spendilog/internal/events"
	"github.com/mmynk/spendilog/internal/models"
	"github.com/mmynk/spendilog/internal/storage"
)

// errTripAccess is returned when the caller does not own the trip.
var errTripAccess = errors.New("trip belongs to another user")

var invalidArgumentErrors = []error{
	models.ErrEmptyTripName,
	models.ErrNoMembers,
	models.ErrEmptyMemberName,
	models.ErrDuplicateMember,
	models.ErrInvalidCurrency,
	models.ErrUnknownMember,
	models.ErrInvalidAmount,
	models.ErrMissingPayer,
	models.ErrEmptySplit,
	models.ErrInvalidSplitType,
	models.ErrInvalidDate,
	models.ErrSettlementSplit,
	models.ErrSelfSettlement,
	models.ErrDuplicateSplitter,
}

// toConnectError maps domain and storage errors to Connect codes.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, currency.ErrRateUnavailable),
		errors.Is(err, models.ErrMemberReferenced):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, errTripAccess):
		return connect.NewError(connect.CodePermissionDenied, err)
	}
	for _, target := range invalidArgumentErrors {
		if errors.Is(err, target) {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

// publish sends event unless building it failed. Failures are logged; they never fail
// the RPC that produced the event.
func publish(ctx context.Context, publisher events.Publisher, event *events.Event, buildErr error) {
	if buildErr == nil {
		buildErr = publisher.Publish(ctx, event)
	}
	if buildErr != nil {
		slog.Warn("Failed to publish event", "error", buildErr)
	}
}

// displayTag parses a BCP 47 locale for formatting amounts, defaulting to
// English.
func displayTag(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}
