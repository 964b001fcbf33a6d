/* Copyright © 2024-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

import (
	"context"
)

// Completer is the single call type the pipeline needs from a generative
// backend: a role (system) message plus one user message in, raw text out.
// There is no multi-turn state; every call is an independent round trip.
//
//go:generate mockgen --build_flags=--mod=mod -destination=completer_mock.go -package=$GOPACKAGE github.com/mikeb26/policygen/internal/types Completer
type Completer interface {
	Complete(ctx context.Context, role string, message string) (string, error)
}
