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

package data_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/marketdash/data"
)

// countingProvider serves fixed bars and records how often it is called
type countingProvider struct {
	calls  int32
	bars   map[string][]float64
	dates  []time.Time
	err    error
	gate   chan struct{}
	locker sync.Mutex
}

func (p *countingProvider) Name() string {
	return "counting"
}

func (p *countingProvider) Fetch(ctx context.Context, req *data.Request) (*data.PriceSet, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.gate != nil {
		<-p.gate
	}

	if p.err != nil {
		return nil, p.err
	}

	p.locker.Lock()
	defer p.locker.Unlock()

	ps := data.NewPriceSet()
	for _, ticker := range req.Tickers {
		if closes, ok := p.bars[ticker]; ok {
			ps.Add(ticker, bars(p.dates, closes...))
		}
	}
	return ps, nil
}

var _ = Describe("Loader", func() {
	var (
		ctx      context.Context
		provider *countingProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &countingProvider{
			dates: []time.Time{jan(2), jan(3), jan(6), jan(7)},
			bars: map[string][]float64{
				"NVDA": {10, 11, 12, 13},
				"GC=F": {100, 101, 102, 103},
			},
		}
	})

	It("returns bars for every ticker within the range", func() {
		loader := data.NewLoader(provider, nil)
		req, _ := data.NewRequest([]string{"NVDA", "GC=F"}, jan(3), jan(6))

		ps, err := loader.Load(ctx, req)
		Expect(err).To(BeNil())
		Expect(ps.Tickers).To(Equal([]string{"NVDA", "GC=F"}))
		Expect(ps.Bars["NVDA"].Dates).To(Equal([]time.Time{jan(3), jan(6)}))
		Expect(loader.Provider()).To(Equal("counting"))
	})

	It("returns validation errors unwrapped", func() {
		loader := data.NewLoader(provider, nil)
		req := &data.Request{Tickers: []string{"NVDA"}, Begin: jan(6), End: jan(2)}

		_, err := loader.Load(ctx, req)
		Expect(err).To(MatchError(data.ErrBeginAfterEnd))
		Expect(errors.Is(err, data.ErrLoadFailed)).To(BeFalse())
		Expect(atomic.LoadInt32(&provider.calls)).To(Equal(int32(0)))
	})

	It("fails when any ticker is missing", func() {
		loader := data.NewLoader(provider, nil)
		req, _ := data.NewRequest([]string{"NVDA", "MSFT"}, jan(2), jan(7))

		ps, err := loader.Load(ctx, req)
		Expect(ps).To(BeNil())
		Expect(errors.Is(err, data.ErrLoadFailed)).To(BeTrue())

		var loadErr *data.LoadError
		Expect(errors.As(err, &loadErr)).To(BeTrue())
		Expect(loadErr.Tickers).To(Equal([]string{"MSFT"}))
		Expect(err.Error()).To(ContainSubstring("MSFT"))
	})

	It("fails when a ticker has no bars in the range", func() {
		loader := data.NewLoader(provider, nil)
		req, _ := data.NewRequest([]string{"NVDA"}, jan(20), jan(24))

		_, err := loader.Load(ctx, req)
		Expect(err).To(MatchError(data.ErrLoadFailed))
		Expect(errors.Is(err, data.ErrNoData)).To(BeTrue())
	})

	It("wraps provider errors", func() {
		provider.err = data.ErrUnexpectedResponse
		loader := data.NewLoader(provider, nil)
		req, _ := data.NewRequest([]string{"NVDA"}, jan(2), jan(7))

		_, err := loader.Load(ctx, req)
		Expect(errors.Is(err, data.ErrLoadFailed)).To(BeTrue())
		Expect(errors.Is(err, data.ErrUnexpectedResponse)).To(BeTrue())
	})

	It("reuses cached prices", func() {
		cache, err := data.NewCache(8, time.Hour, nil)
		Expect(err).To(BeNil())
		loader := data.NewLoader(provider, cache)

		full, _ := data.NewRequest([]string{"NVDA", "GC=F"}, jan(2), jan(7))
		_, err = loader.Load(ctx, full)
		Expect(err).To(BeNil())

		part, _ := data.NewRequest([]string{"GC=F", "NVDA"}, jan(3), jan(6))
		ps, err := loader.Load(ctx, part)
		Expect(err).To(BeNil())
		Expect(ps.Bars["NVDA"].Len()).To(Equal(2))
		Expect(atomic.LoadInt32(&provider.calls)).To(Equal(int32(1)))

		loader.Invalidate(ctx, full)
		_, err = loader.Load(ctx, part)
		Expect(err).To(BeNil())
		Expect(atomic.LoadInt32(&provider.calls)).To(Equal(int32(2)))

		Expect(loader.Purge(ctx)).To(Succeed())
		Expect(cache.Len()).To(Equal(0))
	})

	It("shares a single fetch between concurrent loads", func() {
		provider.gate = make(chan struct{})
		loader := data.NewLoader(provider, nil)
		req, _ := data.NewRequest([]string{"NVDA"}, jan(2), jan(7))

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := loader.Load(ctx, req)
				Expect(err).To(BeNil())
			}()
		}

		Eventually(func() int32 { return atomic.LoadInt32(&provider.calls) }).Should(Equal(int32(1)))
		close(provider.gate)
		wg.Wait()
		Expect(atomic.LoadInt32(&provider.calls)).To(BeNumerically("<=", 4))
	})

	It("keeps a shared fetch running when one caller gives up", func() {
		provider.gate = make(chan struct{})
		loader := data.NewLoader(provider, nil)
		req, _ := data.NewRequest([]string{"NVDA"}, jan(2), jan(7))

		impatient, cancel := context.WithCancel(ctx)
		abandoned := make(chan error, 1)
		go func() {
			_, err := loader.Load(impatient, req)
			abandoned <- err
		}()
		Eventually(func() int32 { return atomic.LoadInt32(&provider.calls) }).Should(Equal(int32(1)))

		patient := make(chan error, 1)
		go func() {
			_, err := loader.Load(ctx, req)
			patient <- err
		}()

		cancel()
		Eventually(abandoned).Should(Receive(MatchError(context.Canceled)))

		close(provider.gate)
		var err error
		Eventually(patient).Should(Receive(&err))
		Expect(err).To(BeNil())
		Expect(atomic.LoadInt32(&provider.calls)).To(BeNumerically("<=", 2))
	})

	It("bounds a shared fetch with the fetch timeout", func() {
		loader := data.NewLoader(ctxProvider{}, nil)
		loader.SetFetchTimeout(20 * time.Millisecond)
		req, _ := data.NewRequest([]string{"NVDA"}, jan(2), jan(7))

		_, err := loader.Load(ctx, req)
		Expect(errors.Is(err, data.ErrLoadFailed)).To(BeTrue())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("fills gaps across tickers", func() {
		loader := data.NewLoader(&gappyProvider{}, nil)
		req, _ := data.NewRequest([]string{"NVDA", "GC=F"}, jan(2), jan(7))

		ps, err := loader.Load(ctx, req)
		Expect(err).To(BeNil())
		table, err := ps.Flatten(data.MetricClose)
		Expect(err).To(BeNil())
		Expect(table.Dates).To(Equal([]time.Time{jan(2), jan(3), jan(6), jan(7)}))
		Expect(table.Vals[1]).To(Equal([]float64{100, 100, 100, 103}))
	})
})

// gappyProvider returns GC=F without the sessions of jan 3 and jan 6
type gappyProvider struct{}

func (gappyProvider) Name() string {
	return "gappy"
}

func (gappyProvider) Fetch(ctx context.Context, req *data.Request) (*data.PriceSet, error) {
	ps := data.NewPriceSet()
	ps.Add("NVDA", bars([]time.Time{jan(2), jan(3), jan(6), jan(7)}, 10, 11, 12, 13))
	ps.Add("GC=F", bars([]time.Time{jan(2), jan(7)}, 100, 103))
	return ps, nil
}

// ctxProvider blocks until its context ends
type ctxProvider struct{}

func (ctxProvider) Name() string {
	return "blocking"
}

func (ctxProvider) Fetch(ctx context.Context, req *data.Request) (*data.PriceSet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
