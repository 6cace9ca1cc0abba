// Package booking aggregates consultant availability and pricing from the
// booking provider API under a shared concurrency limit.
package booking

import "time"

// State is the computed booking state for a provider code.
type State string

// Booking states. The state decision is driven by the 28-day window count
// only, never by far-future availability.
const (
	StateNotBookable     State = "not_bookable"
	StateBookableNoSlots State = "bookable_no_slots"
	StateBookableSlots   State = "bookable_with_slots"
)

// Availability is the aggregated result of the booking stage for one
// profile.
type Availability struct {
	State State `json:"state"`

	// SlotCount28d counts slots inside the 28-day window; AvgSlotsPerDay is
	// derived from it.
	SlotCount28d   int     `json:"slot_count_28d"`
	ClinicDayCount int     `json:"clinic_day_count"`
	AvgSlotsPerDay float64 `json:"avg_slots_per_day"`

	// NextAvailable is the earliest slot across the full lookahead window,
	// computed independently of the 28-day metrics.
	NextAvailable        *time.Time `json:"next_available"`
	DaysToFirstAvailable *int       `json:"days_to_first_available"`

	// MinPrice is the minimum numeric price across all pricing entries; nil
	// when pricing is absent.
	MinPrice *float64 `json:"min_price"`
}

// clinicDay is one entry of the clinic-days listing.
type clinicDay struct {
	Date       string `json:"date"`
	FacilityID string `json:"facilityId"`
}

// slot is one bookable appointment returned by the slot lookup.
type slot struct {
	Start time.Time `json:"start"`
}

// priceEntry is one row of the pricing response.
type priceEntry struct {
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

// dayFacility is the deduplication key for slot queries.
type dayFacility struct {
	date     string
	facility string
}
