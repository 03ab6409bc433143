// Package schema defines the structured travel request extracted from an
// email. Optional fields are pointers so that an absent value and a zero
// value stay distinguishable after a JSON round trip.
package schema

// Allowed values for the enumerated fields.
var (
	SpecTypes    = []string{"exact", "range", "after", "before", "unspecified"}
	RequestTypes = []string{"flight", "hotel", "transfer"}
	TripTypes    = []string{"one_way", "round_trip", "multi_city"}
	Cabins       = []string{"ECONOMY", "BUSINESS", "FIRST", "PREMIUM_ECONOMY"}
	Purposes     = []string{"business", "leisure", "mixed"}
	Themes       = []string{"city_center", "sea_side", "ski", "conference"}
	Directions   = []string{"arrival", "departure", "roundtrip", "other"}
)

// DateSpec describes a date that may be exact, a range, open-ended or
// unknown. Dates are YYYY-MM-DD.
type DateSpec struct {
	Type  string  `json:"type"`
	Exact *string `json:"exact,omitempty"`
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// TimeSpec is DateSpec for times of day, HH:MM.
type TimeSpec struct {
	Type  string  `json:"type"`
	Exact *string `json:"exact,omitempty"`
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// Leg is one flight segment.
type Leg struct {
	From *string   `json:"from,omitempty"`
	To   *string   `json:"to,omitempty"`
	Date *DateSpec `json:"date,omitempty"`
	Time *TimeSpec `json:"time,omitempty"`
}

// Pax counts travellers. Infant is unused for hotels.
type Pax struct {
	Adult  int `json:"adult"`
	Child  int `json:"child"`
	Infant int `json:"infant"`
}

// HotelPax counts hotel guests.
type HotelPax struct {
	Adult int `json:"adult"`
	Child int `json:"child"`
}

type Baggage struct {
	Hand *int `json:"hand,omitempty"`
	Hold *int `json:"hold,omitempty"`
}

type FlightRequest struct {
	TripType          string   `json:"trip_type"`
	PNR               *string  `json:"pnr,omitempty"`
	AirlinePreference *string  `json:"airline_preference,omitempty"`
	Cabin             *string  `json:"cabin,omitempty"`
	Legs              []Leg    `json:"legs"`
	Pax               Pax      `json:"pax"`
	Baggage           Baggage  `json:"baggage"`
	Currency          *string  `json:"currency,omitempty"`
	BudgetTotal       *float64 `json:"budget_total,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	PONumber          *string  `json:"po_number,omitempty"`
}

type HotelDate struct {
	CheckIn  DateSpec `json:"check_in"`
	CheckOut DateSpec `json:"check_out"`
}

type HotelRequest struct {
	City        *string    `json:"city,omitempty"`
	Area        *string    `json:"area,omitempty"`
	Date        *HotelDate `json:"date,omitempty"`
	Nights      *int       `json:"nights,omitempty"`
	Rooms       *int       `json:"rooms,omitempty"`
	Pax         HotelPax   `json:"pax"`
	Purpose     *string    `json:"purpose,omitempty"`
	Theme       *string    `json:"theme,omitempty"`
	HotelClass  *int       `json:"hotel_class,omitempty"`
	BudgetTotal *float64   `json:"budget_total,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	PONumber    *string    `json:"po_number,omitempty"`
}

type TransferRequest struct {
	Direction     *string   `json:"direction,omitempty"`
	From          *string   `json:"from,omitempty"`
	To            *string   `json:"to,omitempty"`
	Date          *DateSpec `json:"date,omitempty"`
	Time          *TimeSpec `json:"time,omitempty"`
	Pax           Pax       `json:"pax"`
	LuggagePieces *int      `json:"luggage_pieces,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	PONumber      *string   `json:"po_number,omitempty"`
}

// RequestItem carries exactly the branch named by Type; the others are
// normally nil.
type RequestItem struct {
	Type     string           `json:"type"`
	Flight   *FlightRequest   `json:"flight,omitempty"`
	Hotel    *HotelRequest    `json:"hotel,omitempty"`
	Transfer *TransferRequest `json:"transfer,omitempty"`
}

// EmailRequest is the top-level document produced for one email.
type EmailRequest struct {
	Requests []RequestItem `json:"requests"`
}

// Contains reports whether v is one of allowed.
func Contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
