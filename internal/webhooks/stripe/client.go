package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/subscription"

	pkgstripe "github.com/cobaltcommerce/cobalt-backend/pkg/stripe"
)

// SubscriptionClient adapts the shared Stripe client to the narrow fetch
// surface the webhook service needs.
type SubscriptionClient struct{}

// NewSubscriptionClient requires the shared client so the global API key is
// guaranteed to be configured before any fetch.
func NewSubscriptionClient(api *pkgstripe.Client) *SubscriptionClient {
	if api == nil {
		return nil
	}
	return &SubscriptionClient{}
}

func (c *SubscriptionClient) Get(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if params == nil {
		params = &stripe.SubscriptionParams{}
	}
	params.Context = ctx
	return subscription.Get(id, params)
}
