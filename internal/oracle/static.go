package oracle

import (
	"context"
	"sync"

	sdkmath "cosmossdk.io/math"
)

// StaticFeed returns whatever price was last set on it.
type StaticFeed struct {
	mu    sync.RWMutex
	price sdkmath.Int
}

func NewStaticFeed(price sdkmath.Int) *StaticFeed {
	return &StaticFeed{price: price}
}

func (f *StaticFeed) LatestPrice(_ context.Context) (sdkmath.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price.IsNil() {
		return sdkmath.ZeroInt(), nil
	}
	return f.price, nil
}

// Set replaces the price returned by subsequent reads.
func (f *StaticFeed) Set(price sdkmath.Int) {
	f.mu.Lock()
	f.price = price
	f.mu.Unlock()
}
