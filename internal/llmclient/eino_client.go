/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package llmclient adapts an eino chat model to the single-shot
// types.Completer contract: one role message plus one user message in, one
// text response out.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	laclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/mikeb26/policygen/internal/config"
	"github.com/mikeb26/policygen/internal/types"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 10 * time.Second
)

type EINOClient struct {
	vendor          string
	model           string
	runnable        compose.Runnable[[]*schema.Message, *schema.Message]
	reasoningEffort laclopenai.ReasoningEffortLevel
	auditHandler    callbacks.Handler
	auditLog        io.Closer
	timeout         time.Duration
	maxRetries      int
	logger          *zap.Logger

	// newBackOff is swapped out by tests to avoid real sleeps
	newBackOff func() backoff.BackOff
}

var _ types.Completer = (*EINOClient)(nil)

// invocationIDKey is an unexported context key type used to store a per-
// invocation ID so that all audit log entries for a single call to Complete
// can be correlated, retries included.
type invocationIDKey struct{}

// GetInvocationID extracts the invocation ID from the context, if present.
func GetInvocationID(ctx context.Context) (string, bool) {
	if v := ctx.Value(invocationIDKey{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// EnsureInvocationID returns a context that is guaranteed to carry an
// invocation ID, and the ID itself. If the ID is already present, it is
// reused; otherwise, a new UUID is generated and attached to the context.
func EnsureInvocationID(ctx context.Context) (context.Context, string) {
	if id, ok := GetInvocationID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	ctx = context.WithValue(ctx, invocationIDKey{}, id)
	return ctx, id
}

// NewEINOClient builds the chat model for cfg.Vendor and wraps it. cfg must
// already have been validated.
func NewEINOClient(ctx context.Context, cfg *config.Config,
	logger *zap.Logger) (*EINOClient, error) {

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewEINOClientWithModel(ctx, chatModel, cfg, logger)
}

func newChatModel(ctx context.Context,
	cfg *config.Config) (model.BaseChatModel, error) {

	switch cfg.Vendor {
	case "azure":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			ByAzure:    true,
			BaseURL:    cfg.Endpoint,
			APIVersion: cfg.APIVersion,
			Timeout:    cfg.Timeout,
		})
	case "openai":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
	case "anthropic":
		return claude.NewChatModel(ctx, &claude.Config{
			Model:  cfg.Model,
			APIKey: cfg.APIKey,
			// currently hardcode max tokens to 64k; see
			// https://platform.claude.com/docs/en/api/go/messages/create
			MaxTokens: 64000,
		})
	case "google":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create genai client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Model:  cfg.Model,
			Client: client,
		})
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedVendor, cfg.Vendor)
}

// NewEINOClientWithModel wraps an already constructed chat model. Only the
// vendor, model, timeout, retry, reasoning and audit settings of cfg are
// used.
func NewEINOClientWithModel(ctx context.Context, chatModel model.BaseChatModel,
	cfg *config.Config, logger *zap.Logger) (*EINOClient, error) {

	if logger == nil {
		logger = zap.NewNop()
	}

	runnable, err := compose.NewChain[[]*schema.Message, *schema.Message]().
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed to compile chat chain: %w", err)
	}

	var auditHandler callbacks.Handler
	var auditLog io.Closer
	if cfg.AuditLogPath != "" {
		auditHandler, auditLog, err = newAuditCallbacksHandler(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("Failed to open audit log %v: %w",
				cfg.AuditLogPath, err)
		}
	}

	logger = logger.With(zap.String("vendor", cfg.Vendor),
		zap.String("model", cfg.Model))

	client := &EINOClient{
		vendor:          cfg.Vendor,
		model:           cfg.Model,
		runnable:        runnable,
		reasoningEffort: laclopenai.ReasoningEffortLevel(cfg.ReasoningEffort),
		auditHandler:    auditHandler,
		auditLog:        auditLog,
		timeout:         cfg.Timeout,
		maxRetries:      cfg.MaxRetries,
		logger:          logger,
	}
	client.newBackOff = client.defaultBackOff

	return client, nil
}

func (client *EINOClient) defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	return b
}

// Close releases the audit log, if one was opened. It must not race with
// Complete.
func (client *EINOClient) Close() error {
	if client.auditLog == nil {
		return nil
	}
	return client.auditLog.Close()
}

func (client *EINOClient) SetReasoning(
	reasoningEffort laclopenai.ReasoningEffortLevel) {
	client.reasoningEffort = reasoningEffort
}

// Complete sends role as the system message and message as the user message.
// A failed attempt is retried up to maxRetries more times with exponential
// backoff; cancellation of ctx ends the call immediately.
func (client *EINOClient) Complete(ctx context.Context, role string,
	message string) (string, error) {

	ctx, invocationID := EnsureInvocationID(ctx)
	logger := client.logger.With(zap.String("invocation", invocationID))

	dialogue := []*schema.Message{
		schema.SystemMessage(role),
		schema.UserMessage(message),
	}

	var resp string
	attempt := 0
	op := func() error {
		attempt++
		out, err := client.completeOnce(ctx, dialogue)
		if err == nil {
			resp = out
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		logger.Warn("generation attempt failed", zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(client.newBackOff(),
		uint64(client.maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		// cancellation while waiting between attempts surfaces as a bare
		// context error
		if !errors.Is(err, ErrGenerationFailure) {
			err = fmt.Errorf("%w: %w", ErrGenerationFailure, err)
		}
		return "", err
	}

	logger.Debug("generation complete", zap.Int("attempts", attempt),
		zap.Int("length", len(resp)))
	return resp, nil
}

func (client *EINOClient) completeOnce(ctx context.Context,
	dialogue []*schema.Message) (string, error) {

	callCtx := ctx
	if client.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, client.timeout)
		defer cancel()
	}

	opts := make([]compose.Option, 0, 2)
	if client.reasoningEffort != "" {
		modelOpt := laclopenai.WithReasoningEffort(client.reasoningEffort)
		opts = append(opts, compose.WithChatModelOption(modelOpt))
	}
	if client.auditHandler != nil {
		opts = append(opts, compose.WithCallbacks(client.auditHandler))
	}

	msg, err := client.runnable.Invoke(callCtx, dialogue, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailure, ctx.Err())
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) ||
			errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v: %v", ErrBackendTimeout,
				client.timeout, err)
		}
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyResponse
	}

	return msg.Content, nil
}
