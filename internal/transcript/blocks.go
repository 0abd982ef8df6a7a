package transcript

import (
	"fmt"

	"github.com/petasbytes/course-agent/internal/provider"
)

// GroupKind denotes the atomic unit type of a message span.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
// Kind indicates whether it is a singleton or a validated pair.
type Group struct {
	Kind   GroupKind
	Start  int    // inclusive index into msgs
	End    int    // exclusive index into msgs
	Reason string // why an assistant tool_use message stayed a singleton
}

// Reasons an assistant tool_use message could not be paired.
const (
	ReasonOrderingInvalid   = "ordering_invalid"
	ReasonMissingResults    = "missing_results"
	ReasonExtraResults      = "extra_results"
	ReasonDuplicateResults  = "duplicate_results"
	ReasonNotFollowedByUser = "not_followed_by_user"
)

// GroupBlocks groups messages into atomic units that preserve tool-use pairs.
// Invariants:
// - A pair is exactly two adjacent messages: assistant(tool_use+...) then user(tool_result...).
// - In the user message, all tool_result blocks must come first; text (if any) comes after.
// - Parallel completeness: every tool_use id in the assistant appears exactly once
// as a tool_result id in the following user message's leading tool_result segment.
// - tool_result blocks with is_error=true are treated the same for grouping.
func GroupBlocks(msgs []provider.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		reason := ""
		if m.Role == provider.RoleAssistant {
			useIDs := collectToolUseIDs(m)
			if len(useIDs) > 0 {
				if i+1 < len(msgs) && msgs[i+1].Role == provider.RoleUser {
					valid, resultIDs, dup := leadingToolResultIDs(msgs[i+1])
					switch {
					case !valid:
						reason = ReasonOrderingInvalid
					case dup:
						reason = ReasonDuplicateResults
					case !coversAll(resultIDs, useIDs):
						reason = ReasonMissingResults
					case !noExtraResults(resultIDs, useIDs):
						reason = ReasonExtraResults
					default:
						groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
						i += 2
						continue
					}
				} else {
					reason = ReasonNotFollowedByUser
				}
			}
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1, Reason: reason})
		i++
	}
	return groups
}

// PairingError reports an assistant tool_use message without a matching
// tool_result message.
type PairingError struct {
	Index  int
	Reason string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("transcript: unpaired tool_use at message %d: %s", e.Index, e.Reason)
}

// ValidatePairs returns a *PairingError for the first assistant tool_use
// message that is not immediately answered by its tool results.
func ValidatePairs(msgs []provider.Message) error {
	for _, g := range GroupBlocks(msgs) {
		if g.Kind == GroupSingleton && g.Reason != "" {
			return &PairingError{Index: g.Start, Reason: g.Reason}
		}
	}
	return nil
}

// collectToolUseIDs returns the set of tool_use ids present in an assistant message.
func collectToolUseIDs(m provider.Message) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, blk := range m.Content {
		if blk.Type == provider.BlockToolUse && blk.ToolUse != nil && blk.ToolUse.ID != "" {
			ids[blk.ToolUse.ID] = struct{}{}
		}
	}
	return ids
}

// leadingToolResultIDs inspects a user message and returns:
// - valid=false if any non-tool_result block appears before a tool_result
// - resultIDs: the ids of tool_result blocks in the leading tool_result segment
// - dup=true if an id appears more than once in that segment.
func leadingToolResultIDs(m provider.Message) (valid bool, resultIDs map[string]struct{}, dup bool) {
	resultIDs = make(map[string]struct{})
	seenNonResult := false
	for _, blk := range m.Content {
		if blk.Type == provider.BlockToolResult && blk.ToolResult != nil {
			if seenNonResult {
				return false, resultIDs, dup
			}
			if id := blk.ToolResult.ToolUseID; id != "" {
				if _, seen := resultIDs[id]; seen {
					dup = true
				}
				resultIDs[id] = struct{}{}
			}
			continue
		}
		seenNonResult = true
	}
	return true, resultIDs, dup
}

// coversAll checks that every id in required is present in have.
func coversAll(have, required map[string]struct{}) bool {
	for id := range required {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// noExtraResults checks that have holds no ids outside allowed.
func noExtraResults(have, allowed map[string]struct{}) bool {
	for id := range have {
		if _, ok := allowed[id]; !ok {
			return false
		}
	}
	return true
}
