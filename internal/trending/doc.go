// Package trending reads channel histories from the CCS trending
// database's RESTful interface and persists them as text tables.
package trending
