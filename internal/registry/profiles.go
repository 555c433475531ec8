package registry

import (
	"fmt"
	"sync"

	"github.com/creasty/defaults"
	"github.com/mitchellh/mapstructure"

	"github.com/rendis/campaignflow/pkg/schema"
)

// Silent default profiles. Each struct lists the wire fields a kind receives
// without a warning; defaults come from the `default` tags.

type messageProfile struct {
	DiscountType    string `mapstructure:"discountType" default:"none"`
	DiscountValue   string `mapstructure:"discountValue"`
	DiscountCode    string `mapstructure:"discountCode"`
	DiscountEmail   string `mapstructure:"discountEmail"`
	DiscountExpiry  string `mapstructure:"discountExpiry"`
	AddImage        bool   `mapstructure:"addImage"`
	ImageURL        string `mapstructure:"imageUrl"`
	SendContactCard bool   `mapstructure:"sendContactCard"`
}

type productChoiceProfile struct {
	MessageType      string `mapstructure:"messageType" default:"standard"`
	ProductSelection string `mapstructure:"productSelection" default:"manually"`
	ProductImages    bool   `mapstructure:"productImages" default:"true"`
	DiscountType     string `mapstructure:"discountType" default:"none"`
	DiscountValue    string `mapstructure:"discountValue"`
	DiscountCode     string `mapstructure:"discountCode"`
}

type purchaseProfile struct {
	CartSource                   string `mapstructure:"cartSource" default:"latest"`
	DiscountType                 string `mapstructure:"discountType" default:"none"`
	DiscountValue                string `mapstructure:"discountValue"`
	DiscountCode                 string `mapstructure:"discountCode"`
	CustomTotals                 bool   `mapstructure:"customTotals"`
	ShippingAmount               string `mapstructure:"shippingAmount"`
	SendReminderForNonPurchasers bool   `mapstructure:"sendReminderForNonPurchasers"`
	AllowAutomaticPayment        bool   `mapstructure:"allowAutomaticPayment"`
}

type purchaseOfferProfile struct {
	MessageType         string `mapstructure:"messageType" default:"standard"`
	CartSource          string `mapstructure:"cartSource" default:"manual"`
	Discount            bool   `mapstructure:"discount"`
	DiscountType        string `mapstructure:"discountType" default:"none"`
	DiscountValue       string `mapstructure:"discountValue"`
	DiscountCode        string `mapstructure:"discountCode"`
	DiscountEmail       string `mapstructure:"discountEmail"`
	DiscountExpiry      bool   `mapstructure:"discountExpiry"`
	CustomTotals        bool   `mapstructure:"customTotals"`
	ShippingAmount      string `mapstructure:"shippingAmount"`
	IncludeProductImage bool   `mapstructure:"includeProductImage" default:"true"`
	SkipForRecentOrders bool   `mapstructure:"skipForRecentOrders"`
}

type replyCartChoiceProfile struct {
	MessageType        string `mapstructure:"messageType" default:"standard"`
	CartSelection      string `mapstructure:"cartSelection" default:"latest"`
	CustomTotals       bool   `mapstructure:"customTotals"`
	CustomTotalsAmount string `mapstructure:"customTotalsAmount" default:"Shipping"`
}

type noReplyProfile struct {
	Enabled bool `mapstructure:"enabled" default:"true"`
}

type branchProfile struct {
	Enabled     bool   `mapstructure:"enabled" default:"true"`
	Action      string `mapstructure:"action"`
	Description string `mapstructure:"description"`
}

type replyProfile struct {
	Enabled     bool   `mapstructure:"enabled" default:"true"`
	Intent      string `mapstructure:"intent" default:"yes"`
	Description string `mapstructure:"description" default:"Wait for reply from customer"`
}

type quizConfigProfile struct {
	TimeLimit        int  `mapstructure:"timeLimit" default:"300"`
	PassingScore     int  `mapstructure:"passingScore" default:"70"`
	ShuffleQuestions bool `mapstructure:"shuffleQuestions"`
	ShowResults      bool `mapstructure:"showResults" default:"true"`
}

var (
	profilesOnce sync.Once
	profileMaps  map[schema.StepKind]map[string]any
)

// profiles builds the wire maps once; they are read-only afterwards.
func profiles() map[schema.StepKind]map[string]any {
	profilesOnce.Do(func() {
		profileMaps = map[schema.StepKind]map[string]any{
			schema.StepMessage:         encodeProfile(&messageProfile{}),
			schema.StepProductChoice:   encodeProfile(&productChoiceProfile{}),
			schema.StepPurchase:        encodeProfile(&purchaseProfile{}),
			schema.StepPurchaseOffer:   encodeProfile(&purchaseOfferProfile{}),
			schema.StepReplyCartChoice: encodeProfile(&replyCartChoiceProfile{}),
			schema.StepNoReply:         encodeProfile(&noReplyProfile{}),
			schema.StepReply:           encodeProfile(&replyProfile{}),
			schema.StepSplit: encodeProfile(&branchProfile{
				Action: "include", Description: "Split flow based on conditions",
			}),
			schema.StepSplitGroup: encodeProfile(&branchProfile{
				Action: "control", Description: "Experiment variant group",
			}),
			schema.StepSplitRange: encodeProfile(&branchProfile{
				Action: "schedule", Description: "Scheduled time range",
			}),
		}
	})
	return profileMaps
}

// encodeProfile applies `default` tags to p and encodes it to a wire map.
// Profiles are static, so a failure here is a programming error.
func encodeProfile(p any) map[string]any {
	if err := defaults.Set(p); err != nil {
		panic(fmt.Sprintf("registry: apply profile defaults: %v", err))
	}
	var out map[string]any
	if err := mapstructure.Decode(p, &out); err != nil {
		panic(fmt.Sprintf("registry: encode profile: %v", err))
	}
	return out
}
