// Package paymentgw is the client for the external payment provider.
// The engine only initiates a payment here; confirmation arrives as an
// asynchronous callback on the HTTP surface.
package paymentgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"

	"tixengine/internal/model"
)

type Config struct {
	BaseURL     string
	APIKey      string
	CallbackURL string
	Timeout     time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *zerolog.Logger
}

func NewClient(cfg Config, log *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

type initiateRequest struct {
	OrderID     string `json:"order_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
}

type initiateResponse struct {
	PaymentURL string `json:"payment_url"`
}

// Initiate registers the order with the provider and returns the URL
// the buyer pays at. Transient failures are retried with backoff; a
// final failure is the caller's signal to release the reservation.
func (c *Client) Initiate(ctx context.Context, o *model.Order) (string, error) {
	payload, err := json.Marshal(initiateRequest{
		OrderID:     o.ID,
		Amount:      o.Total.StringFixed(2),
		Description: fmt.Sprintf("%d ticket(s), order %s", o.Quantity, o.ID),
		CallbackURL: c.cfg.CallbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("marshal initiate request: %w", err)
	}

	var paymentURL string
	err = retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/v1/payments", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
		}

		var out initiateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
		if out.PaymentURL == "" {
			return fmt.Errorf("gateway returned empty payment_url")
		}
		paymentURL = out.PaymentURL
		return nil
	}, retry.Strategy{Attempts: 3, Delay: 500 * time.Millisecond, Backoff: 2})
	if err != nil {
		c.log.Error().Err(err).Str("order_id", o.ID).Msg("payment initiate failed after retries")
		return "", err
	}

	return paymentURL, nil
}
