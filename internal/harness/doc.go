// Package harness carries the site-specific glue for harnessed jobs:
// traveler environment lookups, the setup-command prologue handed to the
// remote interpreter, and job configuration.
package harness
