package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"notify/internal/model"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Sample returns the built-in demo catalog.
func Sample() *Catalog {
	c, err := New(sampleEvents())
	if err != nil {
		// The sample data is fixed; a failure here is a programming error.
		panic(err)
	}
	return c
}

func sampleEvents() []model.Event {
	return []model.Event{
		{
			ID:          "1",
			Name:        "Summer Music Festival",
			Location:    "Central Park, New York",
			Category:    "Music",
			Date:        time.Date(2025, time.July, 15, 18, 0, 0, 0, time.UTC),
			Image:       "https://images.unsplash.com/photo-1459749411175-04bf5292ceea?w=800",
			Price:       price("89"),
			Description: "Three stages, twenty artists and a night under the stars. Food trucks and craft drinks all evening.",
		},
		{
			ID:          "2",
			Name:        "Tech Innovation Summit",
			Location:    "Moscone Center, San Francisco",
			Category:    "Technology",
			Date:        time.Date(2025, time.August, 22, 9, 0, 0, 0, time.UTC),
			Image:       "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800",
			Price:       price("299"),
			Description: "Talks and workshops on AI, cloud infrastructure and developer tooling from industry leaders.",
		},
		{
			ID:          "3",
			Name:        "Food & Wine Expo",
			Location:    "Navy Pier, Chicago",
			Category:    "Food",
			Date:        time.Date(2025, time.September, 5, 12, 0, 0, 0, time.UTC),
			Image:       "https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=800",
			Price:       price("45"),
			Description: "Tastings from over a hundred wineries and local restaurants, with live cooking demos.",
		},
		{
			ID:          "4",
			Name:        "Community Art Walk",
			Location:    "Arts District, Los Angeles",
			Category:    "Art",
			Date:        time.Date(2025, time.September, 12, 16, 0, 0, 0, time.UTC),
			Image:       "https://images.unsplash.com/photo-1460661419201-fd4cecdf8a8b?w=800",
			Price:       nil,
			Description: "Open studios, street murals and gallery talks across twelve blocks.",
		},
		{
			ID:          "5",
			Name:        "City Marathon",
			Location:    "Downtown, Boston",
			Category:    "Sports",
			Date:        time.Date(2025, time.October, 3, 7, 0, 0, 0, time.UTC),
			Image:       "https://images.unsplash.com/photo-1452626038306-9aae5e071dd3?w=800",
			Price:       price("60"),
			Description: "A 42 km course through the historic center. Relay and 10 km options available.",
		},
		{
			ID:          "6",
			Name:        "Startup Pitch Night",
			Location:    "WeWork, Austin",
			Category:    "Business",
			Date:        time.Date(2025, time.October, 18, 19, 0, 0, 0, time.UTC),
			Image:       "https://images.unsplash.com/photo-1556761175-5973dc0f32e7?w=800",
			Price:       nil,
			Description: "Ten founders, five minutes each, one panel of investors. Networking afterwards.",
		},
	}
}
