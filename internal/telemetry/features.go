package telemetry

import (
	"context"

	"github.com/petasbytes/course-agent/internal/metrics"
)

// EmitQueryFeatures records size features of a user query. The raw text is
// never written.
func EmitQueryFeatures(ctx context.Context, query string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountQueryFeatures(query)
	Emit("query_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "2",
		"query": map[string]any{
			"bytes":     f.Bytes,
			"runes":     f.Runes,
			"words":     f.Words,
			"lines":     f.Lines,
			"terms":     f.Terms,
			"questions": f.Questions,
		},
	})
}
