package session

import (
	"context"
	"fmt"
)

// Verifier answers whether a product has been purchased, typically by asking
// an app store. It may be slow.
type Verifier interface {
	Verify(ctx context.Context, product string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, product string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, product string) (bool, error) {
	return f(ctx, product)
}

// IsPurchased returns the cached verdict for product. A miss fails with
// ErrEntitlementUnknown; the coordinator never contacts the store itself here.
func (c *Coordinator) IsPurchased(product string) (bool, error) {
	v, ok := c.entitlements.Load(product)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrEntitlementUnknown, product)
	}
	return v, nil
}

// SetPurchased records a verdict for product.
func (c *Coordinator) SetPurchased(product string, purchased bool) {
	c.entitlements.Store(product, purchased)
}

// InvalidateEntitlement forgets the verdict for product.
func (c *Coordinator) InvalidateEntitlement(product string) {
	c.entitlements.Delete(product)
}

// ResetEntitlements forgets every cached verdict.
func (c *Coordinator) ResetEntitlements() {
	c.entitlements.Clear()
}

// VerifyPurchase asks v about product and caches the answer. Concurrent calls
// for the same product share one verifier call. Verifier errors are returned
// and nothing is cached.
func (c *Coordinator) VerifyPurchase(ctx context.Context, product string, v Verifier) (bool, error) {
	res, err, _ := c.verifying.Do(product, func() (any, error) {
		purchased, err := v.Verify(ctx, product)
		if err != nil {
			return false, err
		}
		c.SetPurchased(product, purchased)
		return purchased, nil
	})
	if err != nil {
		return false, fmt.Errorf("verify purchase %s: %w", product, err)
	}
	return res.(bool), nil
}
