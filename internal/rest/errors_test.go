// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.
//
// shamir-secret-sharing-app is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/shamir"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: 2 MiB", ErrRequestTooLarge), http.StatusRequestEntityTooLarge},
		{ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("%w: EOF", ErrInvalidRequest), http.StatusBadRequest},
		{shamir.ErrInvalidParameter, http.StatusBadRequest},
		{shamir.ErrInconsistentShares, http.StatusBadRequest},
		{shamir.ErrEmptySecret, http.StatusBadRequest},
		{shamir.ErrFieldArithmetic, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", sharing.ErrInternal, context.Canceled), http.StatusInternalServerError},
		{ErrInternalError, http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToStatusCode(tt.err))
		})
	}
}
