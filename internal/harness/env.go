package harness

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvUnitID          = "LCATR_UNIT_ID"
	EnvUnitType        = "LCATR_UNIT_TYPE"
	EnvRunNumber       = "LCATR_RUN_NUMBER"
	EnvJob             = "LCATR_JOB"
	EnvSiteName        = "SITENAME"
	EnvConfigDir       = "LCATR_CONFIG_DIR"
	EnvSubsystemConfig = "LCATR_CCS_SUBSYSTEM_CONFIG"
)

func requireEnv(name string) (string, error) {
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	return "", fmt.Errorf("harness: environment variable %s not set", name)
}

// UnitID is the id of the unit under test.
func UnitID() (string, error) { return requireEnv(EnvUnitID) }

// LSSTID is the LSST-side id; the travelers alias it to the unit id.
func LSSTID() (string, error) { return requireEnv(EnvUnitID) }

func UnitType() (string, error)  { return requireEnv(EnvUnitType) }
func RunNumber() (string, error) { return requireEnv(EnvRunNumber) }

// JobName is the name of the harnessed job.
func JobName() (string, error) { return requireEnv(EnvJob) }

func SiteName() (string, error) { return requireEnv(EnvSiteName) }

// ConfigDir locates the site configuration files.
func ConfigDir() (string, error) { return requireEnv(EnvConfigDir) }

// CCDVendor derives the sensor vendor from the unit type. Raft-level ids
// carry no vendor prefix and default to ITL.
func CCDVendor() (string, error) {
	unitType, err := UnitType()
	if err != nil {
		return "", err
	}
	vendor := strings.SplitN(unitType, "-", 2)[0]
	switch vendor {
	case "ITL", "E2V", "e2v":
		return vendor, nil
	}
	if strings.Contains(strings.ToLower(unitType), "rsa") {
		return "ITL", nil
	}
	return "", fmt.Errorf("harness: unrecognized CCD vendor for unit type %q", unitType)
}
