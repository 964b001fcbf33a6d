/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

package llmclient

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	ub "github.com/cloudwego/eino/utils/callbacks"
)

// summarizeText returns a truncated version of s for logging purposes.
func summarizeText(s string) string {
	const maxLen = 200
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// summarizeMessages produces a compact textual representation of a slice of
// schema.Message values suitable for audit logging. The system message is
// one of a few fixed role prompts so only the last message is summarized.
func summarizeMessages(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}

		var b strings.Builder
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(summarizeText(m.Content))
		return b.String()
	}

	return "<no-messages>"
}

// getInvocationIDForLog builds the textual prefix for audit log lines based on
// the invocation ID stored in the context, if any.
func getInvocationIDForLog(ctx context.Context) string {
	if id, ok := GetInvocationID(ctx); ok {
		return "[" + id + "] "
	}

	return ""
}

// getRunName resolves the effective name for a callback run, falling back to
// defaultName when the callbacks.RunInfo is nil or has an empty Name.
func getRunName(defaultName string, info *callbacks.RunInfo) string {
	if info != nil && info.Name != "" {
		return info.Name
	}
	return defaultName
}

type auditModelCallbacks struct {
	logger *log.Logger
}

func (h *auditModelCallbacks) OnStart(
	ctx context.Context,
	info *callbacks.RunInfo,
	input *model.CallbackInput,
) context.Context {
	name := getRunName("chat_model", info)

	argsSummary := "<nil>"
	if input != nil {
		argsSummary = summarizeMessages(input.Messages)
	}

	prefix := getInvocationIDForLog(ctx)
	h.logger.Printf("%smodel_%s: %s start", prefix, name, argsSummary)
	return ctx
}

func (h *auditModelCallbacks) OnEnd(
	ctx context.Context,
	info *callbacks.RunInfo,
	output *model.CallbackOutput,
) context.Context {
	name := getRunName("chat_model", info)

	resp := "<nil>"
	var reasoning string
	if output != nil && output.Message != nil {
		if output.Message.Content != "" {
			resp = summarizeText(output.Message.Content)
		}
		reasoning = output.Message.ReasoningContent
	}

	prefix := getInvocationIDForLog(ctx)
	h.logger.Printf("%smodel_%s: %s end", prefix, name, resp)

	// reasoning is logged untruncated
	if reasoning != "" {
		h.logger.Printf("%smodel_%s: reasoning: %s", prefix, name, reasoning)
	}
	if output != nil && output.TokenUsage != nil {
		h.logger.Printf("%smodel_%s: tokens prompt=%d completion=%d", prefix,
			name, output.TokenUsage.PromptTokens,
			output.TokenUsage.CompletionTokens)
	}
	return ctx
}

func (h *auditModelCallbacks) OnError(
	ctx context.Context,
	info *callbacks.RunInfo,
	err error,
) context.Context {
	name := getRunName("chat_model", info)

	prefix := getInvocationIDForLog(ctx)
	h.logger.Printf("%smodel_%s: error: %v", prefix, name, err)
	return ctx
}

// newAuditModelHandler constructs a ModelCallbackHandler that logs model
// invocations, responses and failures using the provided logger.
func newAuditModelHandler(logger *log.Logger) *ub.ModelCallbackHandler {
	cb := &auditModelCallbacks{logger: logger}
	return &ub.ModelCallbackHandler{
		OnStart: cb.OnStart,
		OnEnd:   cb.OnEnd,
		OnError: cb.OnError,
	}
}

// newAuditCallbacksHandler builds a callbacks.Handler that appends model
// traffic to logfile. The caller owns the returned closer.
func newAuditCallbacksHandler(logfile string) (callbacks.Handler, io.Closer,
	error) {

	f, err := os.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New(f, "policygen ", log.LstdFlags)

	helper := ub.NewHandlerHelper().
		ChatModel(newAuditModelHandler(logger))

	return helper.Handler(), f, nil
}
