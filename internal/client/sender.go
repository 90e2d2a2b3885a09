package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
)

// Send performs one outbox op and classifies its failure for the flusher
func (c *Client) Send(ctx context.Context, op outbox.Op) error {
	err := c.send(ctx, op)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fmt.Errorf("%w: %w", outbox.ErrUnauthorized, err)
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", outbox.ErrGone, err)
	case errors.As(err, &apiErr) && isClientError(apiErr.StatusCode):
		return fmt.Errorf("%w: %w", outbox.ErrRejected, err)
	}
	return err
}

func (c *Client) send(ctx context.Context, op outbox.Op) error {
	switch op.Kind {
	case outbox.KindSetBalance:
		return c.userCall(ctx, http.MethodPut, "/balance", op.Payload, nil)
	case outbox.KindCreateTrip:
		return c.userCall(ctx, http.MethodPost, "/trips", op.Payload, nil)
	case outbox.KindUpdateTrip:
		return c.userCall(ctx, http.MethodPut, tripPath(op.TripID), op.Payload, nil)
	case outbox.KindDeleteTrip:
		return c.DeleteTrip(ctx, op.TripID)
	}
	return fmt.Errorf("%w: unknown op kind %q", outbox.ErrRejected, op.Kind)
}

// isClientError reports 4xx statuses a retry cannot fix
func isClientError(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout && status != http.StatusTooManyRequests
}
