package forms

import (
	"context"
	"net/url"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/wizard"
)

// Listing wizard steps.
const (
	ListingBasic        wizard.StepID = "basic"
	ListingPricing      wizard.StepID = "pricing"
	ListingAvailability wizard.StepID = "availability"
	ListingReview       wizard.StepID = "review"
)

// Listing categories and item conditions accepted by the backend.
var (
	ListingCategories = []string{"electronics", "vehicles", "property", "equipment", "clothing", "other"}
	ItemConditions    = []string{"new", "excellent", "good", "fair", "poor"}
)

// ListingSteps returns the four steps of the listing wizard.
func ListingSteps() []wizard.Step {
	return []wizard.Step{
		{
			ID:    ListingBasic,
			Label: "Basic Information",
			Fields: []wizard.Field{
				{Name: "title", Label: "Title", Placeholder: "Professional DSLR Camera with Lenses"},
				{Name: "category", Label: "Category", Kind: wizard.KindChoice, Options: ListingCategories},
				{Name: "item_condition", Label: "Condition", Kind: wizard.KindChoice, Options: ItemConditions, Optional: true},
				{Name: "description", Label: "Description", Kind: wizard.KindMultiline},
			},
			Validate: wizard.Rules(map[string]string{
				"title":          "required",
				"category":       "required,oneof=" + joinOptions(ListingCategories),
				"item_condition": "omitempty,oneof=" + joinOptions(ItemConditions),
				"description":    "required",
			}),
		},
		{
			ID:    ListingPricing,
			Label: "Pricing & Location",
			Fields: []wizard.Field{
				{Name: "price", Label: "Price per day", Kind: wizard.KindNumber},
				{Name: "location", Label: "Location", Placeholder: "Where will renters pick up the item?"},
			},
			Validate: wizard.Rules(map[string]string{
				"price":    "gt=0",
				"location": "required",
			}),
		},
		{
			ID:    ListingAvailability,
			Label: "Availability",
			Fields: []wizard.Field{
				{Name: "always_available", Label: "Always available", Kind: wizard.KindBool},
				{Name: "start_date", Label: "Start date", Kind: wizard.KindDate, Placeholder: "YYYY-MM-DD"},
				{Name: "end_date", Label: "End date", Kind: wizard.KindDate, Placeholder: "YYYY-MM-DD"},
				{Name: "rules", Label: "Rules", Kind: wizard.KindList, Optional: true, Placeholder: "No smoking; No pets"},
				{Name: "delivery_options", Label: "Delivery options", Kind: wizard.KindList, Optional: true, Placeholder: "Pickup only"},
			},
			Validate: wizard.Rules(
				map[string]string{
					"start_date": "omitempty,datetime=" + wizard.DateLayout,
					"end_date":   "omitempty,datetime=" + wizard.DateLayout,
				},
				wizard.RequiredUnless("always_available", "start_date", "end_date"),
				wizard.DateOrder("start_date", "end_date"),
			),
		},
		{
			ID:       ListingReview,
			Label:    "Review & Publish",
			Validate: wizard.NoValidation,
		},
	}
}

// ListingDefaults is the initial listing draft.
func ListingDefaults() map[string]any {
	return map[string]any{
		"item_condition":   "excellent",
		"always_available": false,
		"rules":            []string{},
		"delivery_options": []string{},
	}
}

// NewListingWizard builds the listing wizard submitting to listings.
func NewListingWizard(listings *api.ListingsAPI, opts wizard.Options) (*wizard.Controller, error) {
	if opts.Initial == nil {
		opts.Initial = ListingDefaults()
	}
	submit := func(ctx context.Context, draft map[string]any, attachments []wizard.Attachment) error {
		_, err := listings.Create(ctx, ListingPayload(draft), ListingForm(draft), uploads(attachments))
		return err
	}
	return wizard.New("listing", ListingSteps(), submit, opts)
}

// ListingPayload is the JSON body for a listing without images.
func ListingPayload(draft map[string]any) map[string]any {
	always, _ := draft["always_available"].(bool)
	availability := map[string]any{"always_available": always}
	if !always {
		availability["start_date"] = str(draft, "start_date")
		availability["end_date"] = str(draft, "end_date")
	}

	return map[string]any{
		"title":            str(draft, "title"),
		"category":         str(draft, "category"),
		"description":      str(draft, "description"),
		"item_condition":   str(draft, "item_condition"),
		"price":            num(draft, "price"),
		"location":         str(draft, "location"),
		"rules":            list(draft, "rules"),
		"delivery_options": list(draft, "delivery_options"),
		"availability":     availability,
	}
}

// ListingForm is the multipart field set for a listing with images.
// Availability is flattened and lists become repeated fields.
func ListingForm(draft map[string]any) url.Values {
	form := url.Values{}
	for _, key := range []string{"title", "category", "description", "item_condition", "location"} {
		form.Set(key, str(draft, key))
	}
	form.Set("price", wizard.FormatValue(num(draft, "price")))

	always, _ := draft["always_available"].(bool)
	form.Set("always_available", boolString(always))
	if !always {
		form.Set("start_date", str(draft, "start_date"))
		form.Set("end_date", str(draft, "end_date"))
	}
	for _, key := range []string{"rules", "delivery_options"} {
		for _, v := range list(draft, key) {
			form.Add(key, v)
		}
	}
	return form
}

func uploads(attachments []wizard.Attachment) []apiclient.Upload {
	if len(attachments) == 0 {
		return nil
	}
	out := make([]apiclient.Upload, len(attachments))
	for i, a := range attachments {
		out[i] = a.Upload
	}
	return out
}
