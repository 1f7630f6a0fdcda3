package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestIsPurchasedLifecycle(t *testing.T) {
	f := newFixture(t)
	c := f.coord

	if _, err := c.IsPurchased("pro"); !errors.Is(err, ErrEntitlementUnknown) {
		t.Fatalf("err = %v, want ErrEntitlementUnknown", err)
	}

	ok, err := c.VerifyPurchase(context.Background(), "pro", VerifierFunc(func(context.Context, string) (bool, error) {
		return true, nil
	}))
	if err != nil || !ok {
		t.Fatalf("VerifyPurchase = (%v, %v)", ok, err)
	}
	if ok, err := c.IsPurchased("pro"); err != nil || !ok {
		t.Fatalf("IsPurchased = (%v, %v), want (true, nil)", ok, err)
	}

	c.SetPurchased("family", false)
	if ok, err := c.IsPurchased("family"); err != nil || ok {
		t.Fatalf("IsPurchased(family) = (%v, %v), want (false, nil)", ok, err)
	}

	c.InvalidateEntitlement("pro")
	if _, err := c.IsPurchased("pro"); !errors.Is(err, ErrEntitlementUnknown) {
		t.Fatalf("after invalidate err = %v", err)
	}
	c.ResetEntitlements()
	if _, err := c.IsPurchased("family"); !errors.Is(err, ErrEntitlementUnknown) {
		t.Fatalf("after reset err = %v", err)
	}
}

func TestVerifyPurchaseErrorIsNotCached(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("store offline")
	_, err := f.coord.VerifyPurchase(context.Background(), "pro", VerifierFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if _, err := f.coord.IsPurchased("pro"); !errors.Is(err, ErrEntitlementUnknown) {
		t.Fatalf("failed verification populated the cache: %v", err)
	}
}

func TestEntitlementsSurviveLogout(t *testing.T) {
	u := newUser("alice")
	f := newFixture(t, u)
	f.coord.SetPurchased("pro", true)
	_ = f.coord.Logout(context.Background())
	if ok, err := f.coord.IsPurchased("pro"); err != nil || !ok {
		t.Fatalf("IsPurchased = (%v, %v)", ok, err)
	}
}

func TestConcurrentVerifyPurchase(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	release := make(chan struct{})
	v := VerifierFunc(func(context.Context, string) (bool, error) {
		calls.Add(1)
		<-release
		return true, nil
	})

	const n = 16
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := f.coord.VerifyPurchase(context.Background(), "pro", v)
			if err != nil {
				t.Errorf("VerifyPurchase: %v", err)
			}
			results[i] = ok
		}(i)
	}
	close(release)
	wg.Wait()

	if c := calls.Load(); c < 1 || c > n {
		t.Fatalf("verifier called %d times", c)
	}
	for i, ok := range results {
		if !ok {
			t.Fatalf("result %d = false", i)
		}
	}
	if ok, err := f.coord.IsPurchased("pro"); err != nil || !ok {
		t.Fatalf("IsPurchased = (%v, %v)", ok, err)
	}
}
