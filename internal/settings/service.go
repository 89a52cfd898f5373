package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/pkg/config"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/money"
)

// Known setting keys. Amounts are stored as JSON numbers in MAD.
const (
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyDefaultShippingCost   = "default_shipping_cost"
	KeyContactEmail          = "contact_email"
	KeyContactPhone          = "contact_phone"
	KeyWhatsappNumber        = "whatsapp_number"
	KeySocialInstagram       = "social_instagram"
	KeySocialFacebook        = "social_facebook"
	KeySocialTikTok          = "social_tiktok"
)

var amountKeys = map[string]bool{
	KeyFreeShippingThreshold: true,
	KeyDefaultShippingCost:   true,
}

var textKeys = map[string]bool{
	KeyContactEmail:    true,
	KeyContactPhone:    true,
	KeyWhatsappNumber:  true,
	KeySocialInstagram: true,
	KeySocialFacebook:  true,
	KeySocialTikTok:    true,
}

// Storefront is the typed view of the settings table.
type Storefront struct {
	FreeShippingThresholdCents int64  `json:"free_shipping_threshold_cents"`
	DefaultShippingCents       int64  `json:"default_shipping_cents"`
	ContactEmail               string `json:"contact_email,omitempty"`
	ContactPhone               string `json:"contact_phone,omitempty"`
	WhatsappNumber             string `json:"whatsapp_number,omitempty"`
	SocialInstagram            string `json:"social_instagram,omitempty"`
	SocialFacebook             string `json:"social_facebook,omitempty"`
	SocialTikTok               string `json:"social_tiktok,omitempty"`
}

type Service interface {
	// Storefront never fails: unreadable or missing values fall back to defaults.
	Storefront(ctx context.Context) Storefront
	List(ctx context.Context) ([]models.Setting, error)
	Put(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error)
}

type service struct {
	repo     Repository
	defaults Storefront
	logg     *logger.Logger
	backoff  func() retry.Backoff
}

func NewService(repo Repository, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{
		repo: repo,
		defaults: Storefront{
			FreeShippingThresholdCents: cfg.FreeShippingThresholdCents,
			DefaultShippingCents:       cfg.FallbackShippingCentimes,
		},
		logg:    logg,
		backoff: func() retry.Backoff { return retry.WithMaxRetries(1, retry.NewConstant(200*time.Millisecond)) },
	}, nil
}

func (s *service) Storefront(ctx context.Context) Storefront {
	var rows []models.Setting
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		rows, err = s.repo.All(ctx)
		return retry.RetryableError(err)
	})
	out := s.defaults
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "settings.read_failed using defaults", err)
		}
		return out
	}
	for _, row := range rows {
		switch {
		case amountKeys[row.Key]:
			cents, err := parseAmount(row.Value)
			if err != nil {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "setting_key", row.Key), "settings.invalid_amount ignored")
				}
				continue
			}
			if row.Key == KeyFreeShippingThreshold {
				out.FreeShippingThresholdCents = cents
			} else {
				out.DefaultShippingCents = cents
			}
		case textKeys[row.Key]:
			text, err := parseText(row.Value)
			if err != nil {
				continue
			}
			assignText(&out, row.Key, text)
		}
	}
	return out
}

func (s *service) List(ctx context.Context) ([]models.Setting, error) {
	return s.repo.All(ctx)
}

// Put validates value against the key's type before storing it.
func (s *service) Put(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	switch {
	case amountKeys[key]:
		if _, err := parseAmount(value); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a non-negative amount in MAD").
				WithDetails(map[string]string{key: "must be a non-negative number"})
		}
	case textKeys[key]:
		if _, err := parseText(value); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a string").
				WithDetails(map[string]string{key: "must be a string"})
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown setting key").
			WithDetails(map[string]string{"key": key})
	}
	return s.repo.Upsert(ctx, key, value)
}

func parseAmount(raw json.RawMessage) (int64, error) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return 0, err
	}
	amount, err := decimal.NewFromString(number.String())
	if err != nil {
		return 0, err
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount)
	}
	return money.FromMAD(amount), nil
}

func parseText(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func assignText(out *Storefront, key, text string) {
	switch key {
	case KeyContactEmail:
		out.ContactEmail = text
	case KeyContactPhone:
		out.ContactPhone = text
	case KeyWhatsappNumber:
		out.WhatsappNumber = text
	case KeySocialInstagram:
		out.SocialInstagram = text
	case KeySocialFacebook:
		out.SocialFacebook = text
	case KeySocialTikTok:
		out.SocialTikTok = text
	}
}
