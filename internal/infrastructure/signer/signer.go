// Package signer реализует клиент внешней подписывающей способности.
// Приватные ключи живут только на стороне подписанта: сервис получает
// pubkey и подписанные события, но никогда — ключевой материал.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/zapeame/nostr-market/internal/cfg"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/jitter"
	"github.com/zapeame/nostr-market/pkg/logger"
)

// Remote — клиент подписывающего демона с NIP-07-образным JSON API:
// GET /public_key и POST /sign_event. Транспортные ошибки ретраятся
// с экспоненциальной задержкой; отказ пользователя не ретраится никогда.
type Remote struct {
	addr       string
	client     *http.Client
	maxRetries int
	logger     logger.Logger
}

func NewRemote(cfg *cfg.SignerCfg, logger logger.Logger) *Remote {
	return &Remote{
		addr: cfg.Addr,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// GetPublicKey запрашивает публичную идентичность пользователя
func (s *Remote) GetPublicKey(ctx context.Context) (string, error) {
	const op = "Remote.GetPublicKey"

	var res struct {
		PublicKey string `json:"public_key"`
	}

	err := s.withRetries(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.addr+"/public_key", nil)
		if err != nil {
			return err
		}

		return s.doJSON(req, &res)
	})
	if err != nil {
		return "", e.Wrap(op, err)
	}

	if res.PublicKey == "" {
		return "", e.Wrap(op, e.ErrSignerUnavailable)
	}

	return res.PublicKey, nil
}

// SignEvent отдает черновик события на подпись и заполняет
// ID, PubKey и Sig из ответа. Отказ пользователя всплывает как
// e.ErrSigningRejected без повторных попыток.
func (s *Remote) SignEvent(ctx context.Context, ev *nostr.Event) error {
	const op = "Remote.SignEvent"

	body, err := json.Marshal(ev)
	if err != nil {
		return e.Wrap(op, err)
	}

	var signed nostr.Event
	err = s.withRetries(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.addr+"/sign_event", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		return s.doJSON(req, &signed)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	if signed.Sig == "" {
		return e.Wrap(op, e.ErrSignerUnavailable)
	}

	*ev = signed
	return nil
}

// withRetries выполняет вызов подписанта с retry-логикой и экспоненциальной
// задержкой. Отказ пользователя и отмена контекста прерывают попытки сразу.
func (s *Remote) withRetries(ctx context.Context, op string, call func() error) error {
	const (
		baseJitter = 500 * time.Millisecond
		maxJitter  = 5 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, e.ErrSigningRejected) {
			return lastErr
		}

		if attempt == s.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		s.logger.Warnf("signer call failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, lastErr)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", s.maxRetries, lastErr))
}

// doJSON выполняет запрос и декодирует JSON-ответ.
// 403 от демона означает, что пользователь отклонил операцию.
func (s *Remote) doJSON(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return e.ErrSigningRejected
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("signer returned %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Disabled — вариант без подписанта: любое обращение завершается
// e.ErrSignerUnavailable. Поиск при этом продолжает работать.
type Disabled struct{}

func NewDisabled() *Disabled {
	return &Disabled{}
}

func (Disabled) GetPublicKey(_ context.Context) (string, error) {
	return "", e.ErrSignerUnavailable
}

func (Disabled) SignEvent(_ context.Context, _ *nostr.Event) error {
	return e.ErrSignerUnavailable
}
