package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avelot/recyclerie/internal/service"
)

// ReviewModel lets the operator accept or reject individual proposed
// mappings before the approved mapping file is written for execute.
type ReviewModel struct {
	proposal *service.Proposal
	names    []string
	accepted map[string]bool
	cursor   int
	outPath  string
	status   string
}

func NewReview(proposal *service.Proposal, outPath string) *ReviewModel {
	names := make([]string, 0, len(proposal.Mappings))
	for name := range proposal.Mappings {
		names = append(names, name)
	}
	sort.Strings(names)
	accepted := make(map[string]bool, len(names))
	for _, n := range names {
		accepted[n] = true
	}
	return &ReviewModel{
		proposal: proposal,
		names:    names,
		accepted: accepted,
		outPath:  outPath,
	}
}

func (m *ReviewModel) Init() tea.Cmd { return nil }

func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.names) > 0 {
			name := m.names[m.cursor]
			m.accepted[name] = !m.accepted[name]
		}
	case "a":
		for _, n := range m.names {
			m.accepted[n] = true
		}
	case "n":
		for _, n := range m.names {
			m.accepted[n] = false
		}
	case "s", "enter":
		if err := m.save(); err != nil {
			m.status = fmt.Sprintf("erreur: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("mapping approuvé écrit dans %s", m.outPath)
		return m, tea.Quit
	}
	return m, nil
}

// save writes the approved mapping file: rejected names join unmapped.
func (m *ReviewModel) save() error {
	approved := service.ApprovedMapping{
		Mappings: map[string]service.CategoryMapping{},
		Unmapped: append([]string{}, m.proposal.Unmapped...),
	}
	for _, name := range m.names {
		if m.accepted[name] {
			approved.Mappings[name] = m.proposal.Mappings[name]
		} else {
			approved.Unmapped = append(approved.Unmapped, name)
		}
	}
	data, err := json.MarshalIndent(approved, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.outPath, data, 0o644)
}

func (m *ReviewModel) View() string {
	s := titleStyle.Render("Révision du mapping de catégories") + "\n\n"
	for i, name := range m.names {
		mapping := m.proposal.Mappings[name]
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%-30s → %s (%.0f%%)", name, mapping.CategoryName, mapping.Confidence)
		if m.accepted[name] {
			line = acceptedStyle.Render("[x] " + line)
		} else {
			line = rejectedStyle.Render("[ ] " + line)
		}
		s += cursor + line + "\n"
	}
	if len(m.proposal.Unmapped) > 0 {
		s += "\n" + unmappedStyle.Render(fmt.Sprintf("%d catégorie(s) non résolue(s): %v", len(m.proposal.Unmapped), m.proposal.Unmapped)) + "\n"
	}
	if m.status != "" {
		s += "\n" + statusStyle.Render(m.status) + "\n"
	}
	s += "\n" + helpStyle.Render("↑/↓ naviguer · espace basculer · a tout accepter · n tout rejeter · s sauvegarder · q quitter")
	return s
}
