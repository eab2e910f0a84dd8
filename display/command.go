package display

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// MachineOutputEnv forces JSON output when set to "json", e.g. in CI jobs
// that post-process build results
const MachineOutputEnv = "TRACEGRAPH_OUTPUT"

// IsMachineEnvironment reports whether output is consumed by a program
func IsMachineEnvironment() bool {
	return os.Getenv(MachineOutputEnv) == "json"
}

// ShouldOutputJSON determines if a command should output JSON based on flags and environment
func ShouldOutputJSON(cmd *cobra.Command) bool {
	// Handle nil command gracefully (e.g., when called from a watch rebuild without command context)
	if cmd == nil {
		return IsMachineEnvironment()
	}

	// Check if --json flag was explicitly set
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	// Check global --json flag
	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return IsMachineEnvironment()
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
