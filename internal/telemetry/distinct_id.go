package telemetry

import (
	"github.com/denisbrodbeck/machineid"
)

const anonymousId = "anonymous"

var distinctId = anonymousId

// getDistinctId hashes the machine id with the application name so the raw
// id never leaves the host.
func getDistinctId() string {
	id, err := machineid.ProtectedID("ptree")
	if err != nil {
		return anonymousId
	}
	return id
}
