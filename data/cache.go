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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"

	"github.com/penny-vault/marketdash/common"
)

const redisKeyPrefix = "marketdash:"

// Cache memoizes provider results. The local tier is an LRU of ticker sets; each
// entry holds the ranges loaded for that set so a request contained in a cached
// range is served by trimming. The optional redis tier stores lz4 compressed JSON
// keyed on the exact request.
type Cache struct {
	local  *lru.Cache
	remote *redis.Client
	ttl    time.Duration
	locker sync.Mutex
	now    func() time.Time
}

type cacheItem struct {
	Period  *Interval
	Prices  *PriceSet
	Expires time.Time
}

// NewCache creates a cache holding at most size ticker sets for ttl. remote may be nil.
func NewCache(size int, ttl time.Duration, remote *redis.Client) (*Cache, error) {
	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &Cache{
		local:  local,
		remote: remote,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// NewCacheFromConfig creates a cache from the cache.* configuration keys
func NewCacheFromConfig() (*Cache, error) {
	var rdb *redis.Client
	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return nil, err
		}
		rdb = redis.NewClient(opt)
	}

	return NewCache(viper.GetInt("cache.local_size"), viper.GetDuration("cache.ttl"), rdb)
}

// SetClock replaces the time source used for expiry
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// TTL returns how long entries remain valid
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached prices for req from provider, if any
func (c *Cache) Get(ctx context.Context, provider string, req *Request) (*PriceSet, bool) {
	subLog := log.With().Str("Provider", provider).Object("Request", req).Logger()

	if ps, ok := c.getLocal(provider, req); ok {
		subLog.Debug().Msg("local cache hit")
		return ps, true
	}

	if c.remote == nil {
		return nil, false
	}

	buf, err := c.remote.Get(ctx, remoteKey(provider, req)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			subLog.Warn().Err(err).Msg("redis get failed")
		}
		return nil, false
	}

	raw, err := common.Decompress(buf)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not decompress cached prices")
		return nil, false
	}

	ps := NewPriceSet()
	if err := json.Unmarshal(raw, ps); err != nil {
		subLog.Warn().Err(err).Msg("could not decode cached prices")
		return nil, false
	}

	// the remote key sorts tickers; answer in the order of this request
	ps, err = ps.Select(req.Tickers, req.Begin, req.End)
	if err != nil {
		subLog.Warn().Err(err).Msg("cached prices do not cover the request")
		return nil, false
	}

	subLog.Debug().Msg("remote cache hit")
	c.setLocal(provider, req, ps)
	return ps, true
}

// Set stores ps as the result of req from provider
func (c *Cache) Set(ctx context.Context, provider string, req *Request, ps *PriceSet) {
	c.setLocal(provider, req, ps)

	if c.remote == nil {
		return
	}

	subLog := log.With().Str("Provider", provider).Object("Request", req).Logger()

	raw, err := json.Marshal(ps)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not encode prices for redis")
		return
	}

	buf, err := common.Compress(raw)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not compress prices for redis")
		return
	}

	if err := c.remote.Set(ctx, remoteKey(provider, req), buf, c.ttl).Err(); err != nil {
		subLog.Warn().Err(err).Msg("redis set failed")
	}
}

// Invalidate drops the cached ranges of the ticker set of req that overlap the
// requested dates. Ranges outside [req.Begin, req.End] are kept.
func (c *Cache) Invalidate(ctx context.Context, provider string, req *Request) {
	c.locker.Lock()
	key := localKey(provider, req)
	if val, ok := c.local.Peek(key); ok {
		requested := req.Interval()
		items := val.([]*cacheItem)
		kept := make([]*cacheItem, 0, len(items))
		for _, item := range items {
			if !item.Period.Overlaps(requested) {
				kept = append(kept, item)
			}
		}

		if len(kept) == 0 {
			c.local.Remove(key)
		} else {
			c.local.Add(key, kept)
		}
	}
	c.locker.Unlock()

	if c.remote != nil {
		if err := c.remote.Del(ctx, remoteKey(provider, req)).Err(); err != nil {
			log.Warn().Err(err).Object("Request", req).Msg("redis delete failed")
		}
	}
}

// Purge removes every entry from both tiers
func (c *Cache) Purge(ctx context.Context) error {
	c.locker.Lock()
	c.local.Purge()
	c.locker.Unlock()

	if c.remote == nil {
		return nil
	}

	iter := c.remote.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.remote.Del(ctx, keys...).Err()
	}
	return nil
}

// PurgeExpired drops expired ranges from the local tier and returns the number
// removed. The redis tier expires entries on its own.
func (c *Cache) PurgeExpired() int {
	c.locker.Lock()
	defer c.locker.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.local.Keys() {
		val, ok := c.local.Peek(key)
		if !ok {
			continue
		}

		items := val.([]*cacheItem)
		kept := make([]*cacheItem, 0, len(items))
		for _, item := range items {
			if now.After(item.Expires) {
				removed++
				continue
			}
			kept = append(kept, item)
		}

		if len(kept) == 0 {
			c.local.Remove(key)
		} else if len(kept) != len(items) {
			c.local.Add(key, kept)
		}
	}

	return removed
}

// Len returns the number of cached ranges in the local tier
func (c *Cache) Len() int {
	c.locker.Lock()
	defer c.locker.Unlock()

	cnt := 0
	for _, key := range c.local.Keys() {
		if val, ok := c.local.Peek(key); ok {
			cnt += len(val.([]*cacheItem))
		}
	}
	return cnt
}

// SchedulePurge runs PurgeExpired on the standard 5-field cron schedule spec
func (c *Cache) SchedulePurge(spec string) (*gocron.Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidSchedule, spec, err.Error())
	}

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Cron(spec).Do(func() {
		removed := c.PurgeExpired()
		log.Debug().Int("Removed", removed).Msg("purged expired cache entries")
	}); err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidSchedule, spec, err.Error())
	}

	scheduler.StartAsync()
	return scheduler, nil
}

func (c *Cache) getLocal(provider string, req *Request) (*PriceSet, bool) {
	c.locker.Lock()
	defer c.locker.Unlock()

	val, ok := c.local.Get(localKey(provider, req))
	if !ok {
		return nil, false
	}

	now := c.now()
	requested := req.Interval()
	for _, item := range val.([]*cacheItem) {
		if now.After(item.Expires) || !item.Period.Contains(requested) {
			continue
		}

		ps, err := item.Prices.Select(req.Tickers, req.Begin, req.End)
		if err != nil {
			continue
		}
		return ps, true
	}

	return nil, false
}

func (c *Cache) setLocal(provider string, req *Request, ps *PriceSet) {
	c.locker.Lock()
	defer c.locker.Unlock()

	key := localKey(provider, req)
	now := c.now()
	item := &cacheItem{
		Period:  req.Interval(),
		Prices:  ps,
		Expires: now.Add(c.ttl),
	}

	items := []*cacheItem{item}
	if val, ok := c.local.Peek(key); ok {
		for _, existing := range val.([]*cacheItem) {
			// ranges covered by the new entry are redundant
			if now.After(existing.Expires) || item.Period.Contains(existing.Period) {
				continue
			}
			items = append(items, existing)
		}
	}

	c.local.Add(key, items)
}

func localKey(provider string, req *Request) string {
	digest := blake3.Sum256([]byte(provider + "\x00" + strings.Join(req.SortedTickers(), ",")))
	return hex.EncodeToString(digest[:])
}

func remoteKey(provider string, req *Request) string {
	digest := blake3.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s", provider, strings.Join(req.SortedTickers(), ","),
		req.Begin.Format(common.DateLayout), req.End.Format(common.DateLayout))))
	return redisKeyPrefix + hex.EncodeToString(digest[:])
}
