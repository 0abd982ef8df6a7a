package telemetry

import (
	"os"
)

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes have no effect.
	observeEnabled = os.Getenv("AGT_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is enabled.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to toggle mid-run via env override.
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok {
		return v == "1"
	}
	return observeEnabled
}

// ArtifactsDir is where events.jsonl is written; AGT_ARTIFACTS_DIR overrides
// the default ".agent".
func ArtifactsDir() string {
	if v := os.Getenv("AGT_ARTIFACTS_DIR"); v != "" {
		return v
	}
	return ".agent"
}
