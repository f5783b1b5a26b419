package postgresql

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ConfigureConn is the per-connection setup hook shared by pooled and direct
// connections.
func ConfigureConn(_ context.Context, conn *pgx.Conn) error {
	RegisterJSONCodecs(conn.TypeMap())
	return nil
}

// RegisterJSONCodecs makes json and jsonb columns encode from and decode into
// native Go values (maps, slices, structs).
func RegisterJSONCodecs(m *pgtype.Map) {
	m.RegisterType(&pgtype.Type{
		Name:  "json",
		OID:   pgtype.JSONOID,
		Codec: &pgtype.JSONCodec{Marshal: json.Marshal, Unmarshal: json.Unmarshal},
	})
	m.RegisterType(&pgtype.Type{
		Name:  "jsonb",
		OID:   pgtype.JSONBOID,
		Codec: &pgtype.JSONBCodec{Marshal: json.Marshal, Unmarshal: json.Unmarshal},
	})
}
