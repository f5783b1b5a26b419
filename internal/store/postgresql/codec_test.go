package postgresql

import (
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestRegisterJSONCodecs_RoundTrip(t *testing.T) {
	m := pgtype.NewMap()
	RegisterJSONCodecs(m)

	for _, oid := range []uint32{pgtype.JSONOID, pgtype.JSONBOID} {
		in := map[string]any{"name": "widget", "tags": []any{"a", "b"}, "count": float64(3)}

		buf, err := m.Encode(oid, pgtype.TextFormatCode, in, nil)
		if err != nil {
			t.Fatalf("oid %d: encode: %v", oid, err)
		}

		var out map[string]any
		if err := m.Scan(oid, pgtype.TextFormatCode, buf, &out); err != nil {
			t.Fatalf("oid %d: scan: %v", oid, err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("oid %d: round trip = %#v, want %#v", oid, out, in)
		}
	}
}

func TestRegisterJSONCodecs_Slice(t *testing.T) {
	m := pgtype.NewMap()
	RegisterJSONCodecs(m)

	buf, err := m.Encode(pgtype.JSONBOID, pgtype.TextFormatCode, []int{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(buf) != "[1,2,3]" {
		t.Fatalf("encoded = %q", buf)
	}
	var out []int
	if err := m.Scan(pgtype.JSONBOID, pgtype.TextFormatCode, buf, &out); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !reflect.DeepEqual(out, []int{1, 2, 3}) {
		t.Fatalf("scanned = %v", out)
	}
}

func TestRegisterJSONCodecs_Registered(t *testing.T) {
	m := pgtype.NewMap()
	RegisterJSONCodecs(m)
	for _, name := range []string{"json", "jsonb"} {
		if _, ok := m.TypeForName(name); !ok {
			t.Errorf("type %q not registered", name)
		}
	}
}
