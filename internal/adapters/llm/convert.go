package llm

import "github.com/PabloGalante/loan-agent/internal/domain"

// pairedHistory drops tool results whose originating call is no longer in
// the history. Trimming can cut between a call and its results and
// providers reject orphaned results.
func pairedHistory(history []domain.Message) []domain.Message {
	seen := make(map[string]bool)
	out := make([]domain.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case domain.RoleAssistant:
			for _, c := range m.ToolCalls {
				seen[c.ID] = true
			}
		case domain.RoleTool:
			if !seen[m.ToolCallID] {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// systemText joins every system message of the history.
func systemText(history []domain.Message) string {
	var text string
	for _, m := range history {
		if m.Role != domain.RoleSystem {
			continue
		}
		if text != "" {
			text += "\n\n"
		}
		text += m.Text
	}
	return text
}
