package postgis

import (
	"database/sql"
	"os"
	"strings"
)

// disableDefaultSslOnLocalhost adds sslmode=disable to params
// when host is localhost/127.0.0.1 and the sslmode param and
// PGSSLMODE environment are both not set.
func disableDefaultSslOnLocalhost(params string) string {
	parts := strings.Fields(params)
	isLocalHost := false
	for _, p := range parts {
		if strings.HasPrefix(p, "sslmode=") {
			return params
		}
		if p == "host=localhost" || p == "host=127.0.0.1" {
			isLocalHost = true
		}
	}

	if !isLocalHost {
		return params
	}

	if _, ok := os.LookupEnv("PGSSLMODE"); ok {
		return params
	}

	// found localhost but explicit no sslmode, disable sslmode
	return params + " sslmode=disable"
}

// splitConnectionParams removes the schema= and prefix= options from
// params. They are not understood by PostgreSQL.
func splitConnectionParams(params string) (rest, schema, prefix string) {
	parts := strings.Fields(params)
	kept := parts[:0]
	prefix = "osm_"
	for _, p := range parts {
		switch {
		case strings.HasPrefix(p, "schema="):
			schema = strings.TrimPrefix(p, "schema=")
		case strings.HasPrefix(p, "prefix="):
			prefix = strings.TrimPrefix(p, "prefix=")
			if prefix == "NONE" {
				prefix = ""
			} else if prefix != "" && !strings.HasSuffix(prefix, "_") {
				prefix += "_"
			}
		default:
			kept = append(kept, p)
		}
	}
	if schema == "" {
		schema = "public"
	}
	return strings.Join(kept, " "), schema, prefix
}

func rollbackIfTx(tx **sql.Tx) {
	if *tx != nil {
		if err := (*tx).Rollback(); err != nil {
			log.Errorf("rollback failed: %s", err)
		}
		*tx = nil
	}
}
