/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package llmclient

import (
	"errors"
	"fmt"
)

var (
	ErrGenerationFailure = errors.New("generation failed")
	ErrBackendTimeout    = fmt.Errorf("%w: backend timed out", ErrGenerationFailure)
	ErrEmptyResponse     = fmt.Errorf("%w: empty response", ErrGenerationFailure)
	ErrUnsupportedVendor = errors.New("unsupported vendor")
)
