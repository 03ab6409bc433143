package dataset

import (
	"encoding/json"
	"strconv"
	"strings"
)

const maxSlotLegs = 3

// SlotTarget renders every flight, hotel or transfer request of a label as
// a line "REQUEST n: key=value; key=value; ...". Missing or empty values are
// written as null. It reports false when the label holds no such request.
func SlotTarget(raw json.RawMessage) (string, bool) {
	v, ok := decode(raw)
	if !ok {
		return "", false
	}
	doc, _ := v.(map[string]any)
	reqs, _ := doc["requests"].([]any)
	var lines []string
	for _, r := range reqs {
		req, _ := r.(map[string]any)
		switch str(req["type"]) {
		case "flight", "hotel", "transfer":
		default:
			continue
		}
		lines = append(lines, "REQUEST "+strconv.Itoa(len(lines)+1)+": "+slotLine(req))
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

type slots []string

func (s *slots) add(key string, v any) { *s = append(*s, key+"="+orNull(v)) }

func (s *slots) count(key string, obj map[string]any) {
	v, present := obj[key]
	if !present {
		v = json.Number("0")
	}
	*s = append(*s, key+"="+scalar(v))
}

func (s *slots) spec(prefix string, obj map[string]any, keys ...string) {
	for _, k := range keys {
		s.add(prefix+"_"+k, obj[k])
	}
}

func slotLine(req map[string]any) string {
	t := str(req["type"])
	s := slots{"type=" + t}
	switch t {
	case "flight":
		f, _ := req["flight"].(map[string]any)
		if !truthy(f) {
			break
		}
		s.add("trip_type", f["trip_type"])
		pax := object(f["pax"])
		s.count("adult", pax)
		s.count("child", pax)
		s.count("infant", pax)
		legs, _ := f["legs"].([]any)
		for i, l := range legs {
			if i == maxSlotLegs {
				break
			}
			leg := object(l)
			p := "leg" + strconv.Itoa(i+1)
			s.add(p+"_from", leg["from"])
			s.add(p+"_to", leg["to"])
			s.spec(p+"_date", object(leg["date"]), "type", "exact", "from", "to")
			s.spec(p+"_time", object(leg["time"]), "type", "exact", "from", "to")
		}
	case "hotel":
		h, _ := req["hotel"].(map[string]any)
		if !truthy(h) {
			break
		}
		s.add("city", h["city"])
		s.add("area", h["area"])
		date := object(h["date"])
		s.spec("check_in", object(date["check_in"]), "type", "exact")
		s.spec("check_out", object(date["check_out"]), "type", "exact")
		nights := h["nights"]
		if !truthy(nights) {
			nights = json.Number("0")
		}
		s = append(s, "nights="+scalar(nights))
		pax := object(h["pax"])
		s.count("adult", pax)
		s.count("child", pax)
		s.add("purpose", h["purpose"])
		s.add("hotel_class", h["hotel_class"])
	case "transfer":
		tr, _ := req["transfer"].(map[string]any)
		if !truthy(tr) {
			break
		}
		s.add("direction", tr["direction"])
		s.add("from", tr["from"])
		s.add("to", tr["to"])
		s.spec("date", object(tr["date"]), "type", "exact", "from", "to")
		s.spec("time", object(tr["time"]), "type", "exact")
		pax := object(tr["pax"])
		s.count("adult", pax)
		s.count("child", pax)
		s.count("infant", pax)
	}
	var b strings.Builder
	for i, p := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
		b.WriteByte(';')
	}
	return b.String()
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// truthy mirrors the usual scripting notion of an empty value: null,
// false, zero, "", and empty lists and objects are falsy.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func orNull(v any) string {
	if !truthy(v) {
		return "null"
	}
	return scalar(v)
}

// scalar formats a decoded JSON value. Numbers keep their literal form and
// composite values are written as compact JSON.
func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "null"
		}
		return string(b)
	}
}
