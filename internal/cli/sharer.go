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

package cli

import (
	"context"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/client"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// sharer performs splits and combines either in process or on a server.
// A failed envelope is returned together with its error.
type sharer interface {
	Split(ctx context.Context, secret string, totalShares, threshold int) (*sharing.SplitResult, error)
	Combine(ctx context.Context, shares []string) (*sharing.CombineResult, error)
}

// localSharer adapts sharing.Service to sharer.
type localSharer struct {
	svc *sharing.Service
}

func (l localSharer) Split(ctx context.Context, secret string, totalShares, threshold int) (*sharing.SplitResult, error) {
	result := l.svc.Split(ctx, secret, totalShares, threshold)
	return result, result.Err()
}

func (l localSharer) Combine(ctx context.Context, shares []string) (*sharing.CombineResult, error) {
	result := l.svc.Combine(ctx, shares)
	return result, result.Err()
}

var (
	_ sharer = localSharer{}
	_ sharer = (*client.Client)(nil)
)

// newSharer returns the remote client when --server is set, otherwise a
// local service. withEntropy opens the configured random source; combining
// does not need one. The returned func releases what was opened.
func (a *app) newSharer(ctx context.Context, withEntropy bool) (sharer, func(), error) {
	if a.opts.Server != "" {
		c, err := client.New(&client.Config{
			Address:               a.opts.Server,
			TLSCAFile:             a.opts.TLSCAFile,
			TLSInsecureSkipVerify: a.opts.TLSInsecure,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := c.Connect(ctx); err != nil {
			return nil, nil, err
		}
		a.printVerbose("Using server %s", c.BaseURL())
		return c, func() { _ = c.Close() }, nil
	}

	log, err := a.newLogger(false)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	var svc *sharing.Service
	if withEntropy {
		resolver, err := a.newResolver()
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { _ = resolver.Close() }

		if svc, _, err = a.newService(resolver, log); err != nil {
			closeFn()
			return nil, nil, err
		}
		a.printVerbose("Using GF(2^%d) with %s entropy", svc.Bits(), resolver.Name())
	} else if svc, _, err = a.newService(nil, log); err != nil {
		return nil, nil, err
	}

	return localSharer{svc: svc}, closeFn, nil
}
