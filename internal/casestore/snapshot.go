package casestore

import (
	"fmt"
	"sort"
	"strings"

	"argus/internal/domain"
)

var _ domain.ContextBuilder = (*Store)(nil)

// ContextSnapshot renders the case's known targets and their relationships as
// plain text for injection into a model call. An unknown case yields an empty
// snapshot.
func (s *Store) ContextSnapshot(caseName string) (string, error) {
	if !s.exists(caseName) {
		return "", nil
	}
	targets, err := s.GetTargets(caseName)
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("Known targets:\n")
	for _, target := range targets {
		fmt.Fprintf(&sb, "- [%s] %s (id: %s)\n", target.Type, target.Name, target.ID)
		keys := make([]string, 0, len(target.Data))
		for key := range target.Data {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", key, target.Data[key])
		}
	}

	var links []string
	for _, target := range targets {
		for _, link := range target.Links {
			links = append(links, fmt.Sprintf("- %s %s %s", target.ID, link.Relation, link.TargetID))
		}
	}
	if len(links) > 0 {
		sb.WriteString("Relationships:\n")
		sb.WriteString(strings.Join(links, "\n"))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
