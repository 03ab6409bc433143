package dataset

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSlotTarget_Flight(t *testing.T) {
	lbl := `{"requests":[{"type":"flight","flight":{"trip_type":"round_trip","pax":{"adult":1,"infant":0},
	"legs":[
	 {"from":"IST","to":"BER","date":{"type":"exact","exact":"2026-01-05"},"time":{"type":"unspecified","text":"sabah"}},
	 {"from":"BER","to":"IST","date":{"type":"range","from":"2026-01-10","to":"2026-01-12"}},
	 {"from":"A","to":"B"},
	 {"from":"C","to":"D"}]}}]}`
	got, ok := SlotTarget(json.RawMessage(lbl))
	if !ok {
		t.Fatal("expected a target")
	}
	wantPrefix := "REQUEST 1: type=flight; trip_type=round_trip; adult=1; child=0; infant=0; " +
		"leg1_from=IST; leg1_to=BER; leg1_date_type=exact; leg1_date_exact=2026-01-05; leg1_date_from=null; leg1_date_to=null; " +
		"leg1_time_type=unspecified; leg1_time_exact=null; leg1_time_from=null; leg1_time_to=null; " +
		"leg2_from=BER; leg2_to=IST; leg2_date_type=range; leg2_date_exact=null; leg2_date_from=2026-01-10; leg2_date_to=2026-01-12;"
	if !strings.HasPrefix(got, wantPrefix) {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "leg4_") || !strings.Contains(got, "leg3_from=A;") {
		t.Fatalf("only the first three legs are rendered: %q", got)
	}
	if !strings.HasSuffix(got, "leg3_time_to=null;") {
		t.Fatalf("every slot ends with a semicolon: %q", got)
	}
}

func TestSlotTarget_TransferAndNumbering(t *testing.T) {
	lbl := `{"requests":[
	 {"type":"cruise"},
	 {"type":"transfer","transfer":{"direction":"arrival","from":"BER","to":"Hotel Adlon","date":{"type":"exact","exact":"2026-01-05"},
	  "time":{"type":"exact","exact":"14:30"},"pax":{"adult":2,"child":1,"infant":0}}},
	 {"type":"hotel","hotel":{}}]}`
	got, ok := SlotTarget(json.RawMessage(lbl))
	if !ok {
		t.Fatal("expected a target")
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %q", got)
	}
	want1 := "REQUEST 1: type=transfer; direction=arrival; from=BER; to=Hotel Adlon; date_type=exact; date_exact=2026-01-05; " +
		"date_from=null; date_to=null; time_type=exact; time_exact=14:30; adult=2; child=1; infant=0;"
	if lines[0] != want1 {
		t.Fatalf("line 1:\n got %q\nwant %q", lines[0], want1)
	}
	if lines[1] != "REQUEST 2: type=hotel;" {
		t.Fatalf("empty hotel renders only its type, got %q", lines[1])
	}
}

func TestSlotTarget_ValueFormatting(t *testing.T) {
	lbl := `{"requests":[{"type":"hotel","hotel":{"city":"","nights":0,"hotel_class":0,"pax":{"adult":2.0,"child":null}}}]}`
	got, _ := SlotTarget(json.RawMessage(lbl))
	for _, want := range []string{"city=null;", "nights=0;", "hotel_class=null;", "adult=2.0;", "child=null;"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestSlotTarget_HotelNightsDefaultsToZero(t *testing.T) {
	cases := []struct {
		name, hotel, want string
	}{
		{"absent", `{"city":"Berlin","pax":{"adult":1,"child":0}}`, "nights=0;"},
		{"zero", `{"city":"Berlin","nights":0,"pax":{"adult":1,"child":0}}`, "nights=0;"},
		{"null", `{"city":"Berlin","nights":null,"pax":{"adult":1,"child":0}}`, "nights=0;"},
		{"set", `{"city":"Berlin","nights":3,"pax":{"adult":1,"child":0}}`, "nights=3;"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := SlotTarget(json.RawMessage(`{"requests":[{"type":"hotel","hotel":` + c.hotel + `}]}`))
			if !ok {
				t.Fatal("expected a target")
			}
			if !strings.Contains(got, "check_out_exact=null; "+c.want+" adult=1;") {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestSlotTarget_NoRequests(t *testing.T) {
	for _, lbl := range []string{``, `null`, `[]`, `{"requests":[]}`, `{"requests":[{"type":"other"}]}`, `{bad`} {
		if _, ok := SlotTarget(json.RawMessage(lbl)); ok {
			t.Fatalf("%q must produce no target", lbl)
		}
	}
}
