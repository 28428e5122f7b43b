package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/creativedesign-blip/document-review/internal/core/issue"
	"github.com/creativedesign-blip/document-review/internal/core/risk"
	"github.com/creativedesign-blip/document-review/internal/core/styles"
	"github.com/creativedesign-blip/document-review/pkg/strutil"
)

const listWidth = 40

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch m.mode {
	case modeHITL:
		return m.viewHITLDialog()
	case modeFeedback:
		return m.viewFeedbackDialog()
	}

	header := m.viewHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewList(), m.viewDetail())
	footer := m.viewFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) viewHeader() string {
	notReviewed, accepted, dismissed := m.doc.Counts()
	title := styles.TitleStyle.Render("docrev — " + m.doc.ID)
	counts := styles.MutedStyle.Render(fmt.Sprintf("  %d open · %d accepted · %d dismissed", notReviewed, accepted, dismissed))
	return title + counts
}

func statusIcon(iss issue.Issue) string {
	switch issue.NormalizeStatus(string(iss.Status)) {
	case issue.StatusAccepted:
		return styles.SuccessStyle.Render("●")
	case issue.StatusDismissed:
		return styles.MutedStyle.Render("●")
	default:
		return styles.StatusNotReviewedStyle.Render("○")
	}
}

func (m Model) viewList() string {
	var b strings.Builder
	for i, card := range m.cards {
		iss := card.Issue()

		line := statusIcon(iss) + " " + listText(iss)
		if i == m.selected {
			line = "> " + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if len(m.cards) == 0 {
		b.WriteString(styles.MutedStyle.Render("No issues found"))
	}

	return lipgloss.NewStyle().
		Width(listWidth).
		Height(m.height - 4).
		Render(b.String())
}

func listText(iss issue.Issue) string {
	text := strutil.Truncate(iss.Text, listWidth-8)
	if issue.NormalizeStatus(string(iss.Status)) == issue.StatusDismissed {
		return styles.StatusDismissedStyle.Render(text)
	}
	return text
}

func (m Model) viewDetail() string {
	card := m.card()
	if card == nil {
		return ""
	}
	iss := card.Issue()
	width := m.width - listWidth - 6

	var b strings.Builder

	badge := styles.ToneStyle(risk.ToneFor(iss.Type, iss.RiskLevel)).
		Render(fmt.Sprintf("[%s risk]", risk.LevelFor(iss.Type, iss.RiskLevel)))
	b.WriteString(styles.SubtitleStyle.Render(risk.TypeLabel(iss.Type)) + " " + badge + "\n")
	if desc := risk.TypeDescription(iss.Type); desc != "" {
		b.WriteString(styles.MutedStyle.Render(desc) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(styles.TitleStyle.Render("Flagged text") + "\n")
	b.WriteString(wrap(iss.Text, width) + "\n\n")

	b.WriteString(styles.TitleStyle.Render("Explanation") + "\n")
	b.WriteString(renderMarkdown(iss.EffectiveExplanation(), width) + "\n")

	b.WriteString(styles.TitleStyle.Render("Suggested fix") + "\n")
	b.WriteString(renderMarkdown(iss.EffectiveSuggestedFix(), width) + "\n")

	b.WriteString(styles.MutedStyle.Render("Status: "+string(iss.Status)) + "\n")

	if m.busy {
		b.WriteString("\n" + m.spin.View() + " working...\n")
	}
	if errMsg := card.Review().Err(); errMsg != "" {
		b.WriteString("\n" + styles.ErrorStyle.Render(errMsg) + "\n")
	}
	if sessionErr := card.SessionErr(); sessionErr != "" {
		b.WriteString("\n" + styles.ErrorStyle.Render(sessionErr) + "\n")
	}
	if card.Review().FeedbackPromptOpen() {
		b.WriteString("\n" + styles.WarningStyle.Render("Press f to tell us why this finding was wrong") + "\n")
	}
	if card.Review().FeedbackSubmitted() {
		b.WriteString("\n" + styles.SuccessStyle.Render("Feedback submitted, thank you") + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString("\n" + styles.SuccessStyle.Render(m.statusMsg) + "\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		PaddingLeft(2).
		Render(b.String())
}

func (m Model) viewFooter() string {
	if m.showHelp {
		return styles.HelpStyle.Render(
			"↑/k up · ↓/j down · a accept · d dismiss · e edit & execute · f feedback · r reload · q quit")
	}
	return styles.HelpStyle.Render("? help · q quit")
}

func (m Model) viewHITLDialog() string {
	card := m.card()
	if card == nil {
		return ""
	}
	session := card.Session()

	var b strings.Builder
	b.WriteString(styles.DialogTitleStyle.Render("Review proposed action: "+session.ActionName()) + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	if m.busy {
		b.WriteString(m.spin.View() + " executing...\n")
	}
	if errMsg := session.Err(); errMsg != "" {
		b.WriteString(styles.ErrorStyle.Render(errMsg) + "\n")
	}
	b.WriteString(styles.HelpStyle.Render("C-a approve · C-e execute edits · esc cancel"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.DialogStyle.Render(b.String()))
}

func (m Model) viewFeedbackDialog() string {
	var b strings.Builder
	b.WriteString(styles.DialogTitleStyle.Render("Help us improve") + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	if m.busy {
		b.WriteString(m.spin.View() + " submitting...\n")
	}
	if card := m.card(); card != nil {
		if errMsg := card.Review().Err(); errMsg != "" {
			b.WriteString(styles.ErrorStyle.Render(errMsg) + "\n")
		}
	}
	b.WriteString(styles.HelpStyle.Render("C-s submit · esc skip"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.DialogStyle.Render(b.String()))
}

func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return wrap(text, width) + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return wrap(text, width) + "\n"
	}
	return out
}

func wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
