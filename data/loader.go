// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/penny-vault/marketdash/observability/opentelemetry"
)

// LoadError reports that a load could not produce prices for every requested
// ticker. It matches ErrLoadFailed with errors.Is and unwraps to the cause.
type LoadError struct {
	Tickers []string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s for %s: %s", ErrLoadFailed.Error(), strings.Join(e.Tickers, ","), e.Err.Error())
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// PriceLoader is implemented by Loader; consumers accept it so they can be tested
// without a provider
type PriceLoader interface {
	Load(ctx context.Context, req *Request) (*PriceSet, error)
}

// DefaultFetchTimeout bounds a provider fetch that is shared between callers
const DefaultFetchTimeout = 2 * time.Minute

// Loader fetches prices from a provider through a cache. Identical concurrent
// loads share a single provider call.
type Loader struct {
	provider Provider
	cache    *Cache
	group    singleflight.Group
	timeout  time.Duration
}

// NewLoader creates a loader; cache may be nil to disable memoization
func NewLoader(provider Provider, cache *Cache) *Loader {
	return &Loader{
		provider: provider,
		cache:    cache,
		timeout:  DefaultFetchTimeout,
	}
}

// SetFetchTimeout changes how long a shared provider fetch may run
func (l *Loader) SetFetchTimeout(timeout time.Duration) {
	l.timeout = timeout
}

// Provider returns the name of the underlying provider
func (l *Loader) Provider() string {
	return l.provider.Name()
}

// Load returns bars for every ticker in req over [req.Begin, req.End], aligned on
// the union of their dates with gaps forward then back filled. Either every
// ticker loads or a *LoadError is returned; partial results are never returned.
func (l *Loader) Load(ctx context.Context, req *Request) (*PriceSet, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "loader.Load")
	defer span.End()

	span.SetAttributes(
		attribute.String("Provider", l.provider.Name()),
		attribute.StringSlice("Tickers", req.Tickers),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	subLog := log.With().Str("Provider", l.provider.Name()).Object("Request", req).Logger()

	if l.cache != nil {
		if ps, ok := l.cache.Get(ctx, l.provider.Name(), req); ok {
			span.SetAttributes(attribute.Bool("CacheHit", true))
			return ps.Fill(), nil
		}
	}

	// the fetch outlives any single caller; each caller only stops waiting on cancel
	link := trace.LinkFromContext(ctx)
	ch := l.group.DoChan(remoteKey(l.provider.Name(), req), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		fetchCtx, fetchSpan := otel.Tracer(opentelemetry.Name).Start(fetchCtx, "loader.fetch", trace.WithLinks(link))
		defer fetchSpan.End()

		ps, err := l.fetch(fetchCtx, req)
		if err != nil {
			fetchSpan.RecordError(err)
			fetchSpan.SetStatus(codes.Error, "fetch failed")
		}
		return ps, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		subLog.Warn().Err(ctx.Err()).Msg("load abandoned by caller")
		return nil, ctx.Err()
	case res = <-ch:
	}

	val, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		subLog.Error().Err(err).Msg("could not load prices")
		return nil, err
	}

	if shared {
		subLog.Debug().Msg("load shared with a concurrent request")
	}

	return val.(*PriceSet).Fill(), nil
}

func (l *Loader) fetch(ctx context.Context, req *Request) (*PriceSet, error) {
	ps, err := l.provider.Fetch(ctx, req)
	if err != nil {
		return nil, &LoadError{Tickers: req.Tickers, Err: err}
	}

	if missing := ps.Missing(req.Tickers); len(missing) > 0 {
		return nil, &LoadError{Tickers: missing, Err: ErrNoData}
	}

	ps, err = ps.Select(req.Tickers, req.Begin, req.End)
	if err != nil {
		return nil, &LoadError{Tickers: req.Tickers, Err: err}
	}

	if missing := ps.Missing(req.Tickers); len(missing) > 0 {
		return nil, &LoadError{Tickers: missing, Err: fmt.Errorf("%w in %s", ErrNoData, req.String())}
	}

	if l.cache != nil {
		l.cache.Set(ctx, l.provider.Name(), req, ps)
	}

	return ps, nil
}

// Invalidate drops cached prices for the tickers in req
func (l *Loader) Invalidate(ctx context.Context, req *Request) {
	if l.cache != nil {
		l.cache.Invalidate(ctx, l.provider.Name(), req)
	}
}

// Purge empties the cache
func (l *Loader) Purge(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Purge(ctx)
}
