package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/store"
	fundmeredis "github.com/xraph/fundme/store/redis"
	"github.com/xraph/fundme/store/storetest"
)

// Set FUNDME_REDIS_ADDR (for example "127.0.0.1:6379") to run against a
// live server.
func TestStore(t *testing.T) {
	addr := os.Getenv("FUNDME_REDIS_ADDR")
	if addr == "" {
		t.Skip("FUNDME_REDIS_ADDR not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s := fundmeredis.Open(addr, "", 0, fundmeredis.WithPrefix("fundmetest:"+id.NewEventID().String()))
		if err := s.Ping(context.Background()); err != nil {
			t.Skipf("redis unreachable: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
