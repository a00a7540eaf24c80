package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"owner_portal/internal/domain"
)

// notifyTimeout bounds the detached push dispatch; the webhook response does
// not wait for it.
const notifyTimeout = 10 * time.Second

// WebhookService handles the internal new-reservation webhook: log the
// event, resolve the owners of the listing, and push an alert to their
// devices. Dispatch is fire-and-forget; only the event log write can fail
// the request.
type WebhookService struct {
	repo     domain.UserRepository
	notifier domain.Notifier
}

func NewWebhookService(repo domain.UserRepository, notifier domain.Notifier) *WebhookService {
	return &WebhookService{repo: repo, notifier: notifier}
}

func (s *WebhookService) HandleNewReservation(ctx context.Context, ev domain.ReservationEvent) error {
	if ev.ListingMapID == 0 {
		return newValidationError("listingMapId is required")
	}
	ev.ReceivedAt = time.Now()

	if err := s.repo.LogReservation(ctx, ev); err != nil {
		return err
	}

	users, err := s.repo.UsersForListing(ctx, ev.ListingMapID)
	if err != nil {
		log.Error().Err(err).Int64("listing", ev.ListingMapID).Msg("resolve listing owners failed")
		return nil // event is logged; notification is best-effort
	}
	if len(users) == 0 {
		return nil
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	tokens, err := s.repo.DeviceTokensForUsers(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("load device tokens failed")
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	note := domain.Notification{
		Title: "New reservation",
		Body:  fmt.Sprintf("%s booked %s to %s", ev.GuestName, ev.CheckIn, ev.CheckOut),
		Data: map[string]string{
			"listingMapId":  fmt.Sprintf("%d", ev.ListingMapID),
			"reservationId": fmt.Sprintf("%d", ev.ReservationID),
		},
	}

	// detach from the request context so the response returns immediately
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, tokens, note); err != nil {
			log.Error().Err(err).Int("devices", len(tokens)).Msg("push dispatch failed")
		}
	}()

	return nil
}
