package display

import (
	"encoding/json"
	"flag"
)

// MarshalJSON marshals JSON compactly for machine consumers and pretty
// formatted for human-readable output
func MarshalJSON(v interface{}) ([]byte, error) {
	// Test mode always uses pretty formatting so golden comparisons stay readable
	if flag.Lookup("test.v") != nil {
		return json.MarshalIndent(v, "", "  ")
	}

	if IsMachineEnvironment() {
		return json.Marshal(v)
	}

	// Pretty formatting for human consumption only
	return json.MarshalIndent(v, "", "  ")
}
