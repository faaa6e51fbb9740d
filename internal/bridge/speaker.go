package bridge

import (
	"strings"

	"golang.org/x/text/cases"
)

const agentPrefix = "agent_"

// ResolveSpeaker finds the character a stream speaker refers to.
//
// An exact name match wins. Otherwise the speaker is stripped of its
// "agent_" prefix and case-folded, and the first name containing it (also
// folded) is taken. It returns -1 when nothing matches.
func ResolveSpeaker(names []string, speaker string) int {
	if speaker == "" {
		return -1
	}
	for i, name := range names {
		if name == speaker {
			return i
		}
	}

	fold := cases.Fold()
	needle := strings.TrimSpace(strings.TrimPrefix(fold.String(strings.TrimSpace(speaker)), agentPrefix))
	if needle == "" {
		return -1
	}
	for i, name := range names {
		if strings.Contains(fold.String(name), needle) {
			return i
		}
	}
	return -1
}

// DefaultNames are the villagers of a five-player game.
var DefaultNames = []string{"agent_Alice", "agent_Bob", "agent_Cindy", "agent_Dom", "agent_Elise"}

// DisplayName drops the agent prefix for labels.
func DisplayName(name string) string {
	if len(name) > len(agentPrefix) && strings.EqualFold(name[:len(agentPrefix)], agentPrefix) {
		return name[len(agentPrefix):]
	}
	return name
}
