// internal/adapters/fcm/notifier.go
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"owner_portal/internal/domain"
)

const defaultEndpoint = "https://fcm.googleapis.com/fcm/send"

// Notifier delivers push payloads through FCM's HTTP send endpoint. With an
// empty server key it becomes a no-op, which keeps local development and CI
// working without Firebase credentials.
type Notifier struct {
	key      string
	endpoint string
	hc       *http.Client
}

func New(serverKey string) *Notifier {
	return &Notifier{
		key:      serverKey,
		endpoint: defaultEndpoint,
		hc:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Notify(ctx context.Context, tokens []string, note domain.Notification) error {
	if n.key == "" {
		log.Debug().Int("devices", len(tokens)).Msg("fcm disabled, dropping notification")
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	payload := map[string]any{
		"registration_ids": tokens,
		"notification": map[string]string{
			"title": note.Title,
			"body":  note.Body,
		},
	}
	if len(note.Data) > 0 {
		payload["data"] = note.Data
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "key="+n.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("fcm send failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Success int `json:"success"`
		Failure int `json:"failure"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		log.Info().Int("success", result.Success).Int("failure", result.Failure).Msg("fcm dispatch complete")
	}
	return nil
}
