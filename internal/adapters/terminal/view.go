// Package terminal рисует слайды и статистику в терминале.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/usecase/rotation"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#9CA3AF")
	colorBorder  = lipgloss.Color("#374151")
	colorRelease = lipgloss.Color("#F59E0B")

	confettiPalette = []lipgloss.Color{"#EF4444", "#F59E0B", "#10B981", "#06B6D4", "#3B82F6", "#8B5CF6"}

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	releaseStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRelease)
	barStyle     = lipgloss.NewStyle().Foreground(colorPrimary)
)

// Width ширина полосы конфетти и диаграмм.
const Width = 60

// RenderSlide рисует слайд, видимый сверху.
func RenderSlide(s rotation.Snapshot) string {
	if len(s.Elements) == 0 {
		return panelStyle.Render(mutedStyle.Render("No activity last week."))
	}
	el := s.Elements[s.Front]

	var b strings.Builder
	kind := "PR"
	if el.Release {
		kind = releaseStyle.Render("RELEASE")
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d/%d", s.Front+1, len(s.Elements))))
	b.WriteString(" " + kind + "\n\n")
	b.WriteString(el.Label + "\n")
	b.WriteString(mutedStyle.Render(el.ImageURL))
	if line := confettiLine(el.Particles); line != "" {
		b.WriteString("\n\n" + line)
	}
	b.WriteString("\n\n" + dots(s))
	return panelStyle.Render(b.String())
}

func confettiLine(particles []rotation.Particle) string {
	if len(particles) == 0 {
		return ""
	}
	cells := make([]string, Width)
	for i := range cells {
		cells[i] = " "
	}
	for _, p := range particles {
		col := int(p.X / 100 * Width)
		if col >= Width {
			col = Width - 1
		}
		color := confettiPalette[int(p.Hue/60)%len(confettiPalette)]
		cells[col] = lipgloss.NewStyle().Foreground(color).Render("*")
	}
	return strings.Join(cells, "")
}

func dots(s rotation.Snapshot) string {
	parts := make([]string, len(s.Elements))
	for i := range s.Elements {
		if i == s.Front {
			parts[i] = headerStyle.Render("●")
			continue
		}
		parts[i] = mutedStyle.Render("○")
	}
	return strings.Join(parts, " ")
}

// RenderStats рисует отчёт дашборда: коммиты столбиками и топ авторов.
func RenderStats(report domain.StatsReport) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Commits since "+report.Since.Format("2006-01-02")) + "\n\n")
	if len(report.Repos) == 0 {
		b.WriteString(mutedStyle.Render("No repositories."))
		return panelStyle.Render(b.String())
	}

	maxCommits, nameWidth := 1, 0
	for _, r := range report.Repos {
		maxCommits = max(maxCommits, r.Commits)
		nameWidth = max(nameWidth, len(r.Repo.String()))
	}
	barWidth := Width - nameWidth - 8
	if barWidth < 10 {
		barWidth = 10
	}
	for _, r := range report.Repos {
		n := r.Commits * barWidth / maxCommits
		fmt.Fprintf(&b, "%-*s %s %d\n", nameWidth, r.Repo.String(), barStyle.Render(strings.Repeat("█", n)), r.Commits)
		if len(r.Contributors) > 0 {
			logins := make([]string, 0, len(r.Contributors))
			for _, c := range r.Contributors {
				logins = append(logins, fmt.Sprintf("%s (%d)", c.Login, c.Contributions))
			}
			b.WriteString(mutedStyle.Render(strings.Repeat(" ", nameWidth+1)+strings.Join(logins, ", ")) + "\n")
		}
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
