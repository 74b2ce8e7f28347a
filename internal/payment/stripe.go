package payment

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeService handles premium account upgrades through Stripe
type StripeService struct {
	PremiumPriceID string
	WebhookSecret  string
	BaseURL        string
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(apiKey, priceID, webhookSecret, baseURL string) *StripeService {
	stripe.Key = apiKey

	return &StripeService{
		PremiumPriceID: priceID,
		WebhookSecret:  webhookSecret,
		BaseURL:        baseURL,
	}
}

// Enabled reports whether Stripe credentials are configured
func (s *StripeService) Enabled() bool {
	return stripe.Key != "" && s.PremiumPriceID != ""
}

// CreateCheckoutSession creates a checkout session upgrading a user to
// a premium subscription
func (s *StripeService) CreateCheckoutSession(userID int64, email string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL:    stripe.String(s.BaseURL + "/billing/success"),
		CancelURL:     stripe.String(s.BaseURL + "/billing/cancel"),
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.PremiumPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// Mirror the user id onto the subscription so the
		// cancellation webhook can map back to the account.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": strconv.FormatInt(userID, 10),
			},
		},
	}
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))

	sess, err := session.New(params)
	if err != nil {
		return "", "", err
	}

	return sess.ID, sess.URL, nil
}

// VerifyWebhookSignature verifies the signature of a Stripe webhook event
func (s *StripeService) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.WebhookSecret)
	return &event, err
}

// ProcessPremiumEvent maps a webhook event to a premium-flag change.
// handled is false for event types the service does not act on.
func (s *StripeService) ProcessPremiumEvent(event *stripe.Event) (userID int64, premium bool, handled bool, err error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return 0, false, false, fmt.Errorf("failed to parse checkout session: %w", err)
		}

		userID, err := userIDFromMetadata(sess.Metadata)
		if err != nil {
			return 0, false, false, err
		}
		return userID, true, true, nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return 0, false, false, fmt.Errorf("failed to parse subscription: %w", err)
		}

		userID, err := userIDFromMetadata(sub.Metadata)
		if err != nil {
			return 0, false, false, err
		}
		return userID, false, true, nil
	}

	return 0, false, false, nil
}

func userIDFromMetadata(metadata map[string]string) (int64, error) {
	raw, ok := metadata["user_id"]
	if !ok {
		return 0, fmt.Errorf("user_id not found in event metadata")
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", raw, err)
	}
	return userID, nil
}
