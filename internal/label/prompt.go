package label

import "strings"

// SystemMessage is the fixed system instruction for extraction.
const SystemMessage = "You are an assistant that extracts structured travel requests (flight, hotel, transfer) as JSON."

// TransferWords are the only cues that justify a transfer request.
var TransferWords = []string{
	"transfer", "şoförlü araç", "karşılama", "karşılanma", "şuttle", "shuttle",
	"servis", "özel araç", "pickup", "drop-off", "ground transfer",
}

const schemaPrompt = `Below is an email containing a flight, hotel or transfer request.
Produce output that conforms to the JSON schema described here.

Top level:
{
  "requests": [
    {
      "type": "flight" | "hotel" | "transfer",
      "flight": FlightRequest or null,
      "hotel": HotelRequest or null,
      "transfer": TransferRequest or null
    }
  ]
}
Fill only the object named by "type"; set the other two to null.

DateSpec (every date):
{ "type": "exact" | "range" | "after" | "before" | "unspecified",
  "exact": "YYYY-MM-DD" or null, "from": "YYYY-MM-DD" or null, "to": "YYYY-MM-DD" or null,
  "text": free text of the sender or null }
Examples:
- "5 Ocak 2026" -> {"type":"exact","exact":"2026-01-05","from":null,"to":null,"text":null}
- "5-7 Ocak arası" -> {"type":"range","exact":null,"from":"2026-01-05","to":"2026-01-07","text":null}
- "Ocak içinde bir gün" -> {"type":"unspecified","exact":null,"from":null,"to":null,"text":"ocak içinde bir gün"}

TimeSpec (every time of day): same shape as DateSpec with "HH:MM" values.
- "Saat 15:30" -> {"type":"exact","exact":"15:30","from":null,"to":null,"text":null}
- "öğleden sonra" -> {"type":"unspecified","exact":null,"from":null,"to":null,"text":"öğleden sonra"}

FlightRequest:
{ "trip_type": "one_way" | "round_trip" | "multi_city",
  "pnr": string or null,
  "airline_preference": string or null,
  "cabin": "ECONOMY" | "BUSINESS" | "FIRST" | "PREMIUM_ECONOMY" or null,
  "legs": [ { "from": city or airport or null, "to": city or airport or null, "date": DateSpec, "time": TimeSpec } ],
  "pax": { "adult": int, "child": int, "infant": int },
  "baggage": { "hand": int, "hold": int },
  "currency": string or null,
  "budget_total": number or null,
  "notes": string or null,
  "po_number": the customer's purchase or request number as a string, or null }

HotelRequest:
{ "city": string or null,
  "area": district or null,
  "date": { "check_in": DateSpec, "check_out": DateSpec },
  "nights": int or null,
  "rooms": int or null,
  "pax": { "adult": int, "child": int },
  "purpose": "business" | "leisure" | "mixed" or null,
  "theme": "city_center" | "sea_side" | "ski" | "conference" or null,
  "hotel_class": int or null,
  "budget_total": number or null,
  "currency": string or null,
  "notes": string or null,
  "po_number": string or null }

TransferRequest:
{ "direction": "arrival" | "departure" | "roundtrip" | "other" or null,
  "from": string or null,
  "to": string or null,
  "date": DateSpec,
  "time": TimeSpec,
  "pax": { "adult": int, "child": int, "infant": int },
  "luggage_pieces": int or null,
  "notes": string or null,
  "po_number": string or null }

Rules:
1. Output JSON only. No explanation, comment or prose.
2. Never invent values. A field the email does not state is null.
3. Lists may be empty (for example "legs": []) but field names must match the schema exactly.
4. Write "from" and "to" literally; never "from_".
5. When the email asks for several services, put one object per request in "requests".
6. Create a transfer request only when the email uses one of these words: `

const rulesTail = `.
7. Mentions of a plane, a flight ("uçak", "uçuş", "flight") are a flight request even when the route is city to airport; do not add a transfer.
8. A transfer is ground transport by car. Asking for flight times is a flight request, not a transfer.

Email:
---
`

// BuildPrompt returns the user message for body.
func BuildPrompt(body string) string {
	var b strings.Builder
	b.Grow(len(schemaPrompt) + len(rulesTail) + len(body) + 256)
	b.WriteString(schemaPrompt)
	for i, w := range TransferWords {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"`)
		b.WriteString(w)
		b.WriteString(`"`)
	}
	b.WriteString(rulesTail)
	b.WriteString(body)
	b.WriteString("\n---\n")
	return b.String()
}
