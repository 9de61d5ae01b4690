// Package database holds the configuration shared by the database
// emitters.
package database

type Config struct {
	ConnectionParams string
	Srid             int
}
