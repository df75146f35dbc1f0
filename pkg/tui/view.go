package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/precision"
	"github.com/1F47E/geohash-zones/pkg/session"
)

func (m Model) View() string {
	snap := m.sess.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("🌍 Geohash Zone Explorer"))
	b.WriteString("\n")

	b.WriteString(renderViewport(snap))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, renderLive(snap), "  ", renderSelection(snap)))
	b.WriteString("\n\n")

	if m.input.Focused() {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.searching {
		b.WriteString(fmt.Sprintf("%s Searching...\n", m.spinner.View()))
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render("✗ " + m.err))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(successStyle.Render("✓ " + m.status))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("arrows/hjkl pan • +/- zoom • tab mode • [ ] fixed precision • g grid • z zone • / search • q quit"))
	return b.String()
}

func renderViewport(snap session.Snapshot) string {
	vp := snap.Viewport
	return fmt.Sprintf("%s %s  %s %s  %s %s",
		subtitleStyle.Render("Center"),
		infoStyle.Render(fmt.Sprintf("%.5f, %.5f", vp.Center.Lat, vp.Center.Lon)),
		subtitleStyle.Render("Zoom"),
		infoStyle.Render(fmt.Sprintf("%.0f", vp.Zoom)),
		subtitleStyle.Render("Grid"),
		infoStyle.Render(gridStatus(snap)),
	)
}

func gridStatus(snap session.Snapshot) string {
	if !snap.Settings.ShowGrid {
		return "off"
	}
	return fmt.Sprintf("%d cells @ %d", snap.Overlay.GridCells, snap.Overlay.GridPrecision)
}

func renderLive(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Live geohash"))
	b.WriteString("\n")
	if len(snap.Live) == 0 {
		b.WriteString(dimStyle.Render("waiting for the map"))
		return boxStyle.Render(b.String())
	}

	for _, row := range snap.Live {
		line := fmt.Sprintf("%d  %-9s %s", row.Precision, row.Hash, row.Label)
		if row.Precision == snap.Selection.Precision && snap.Selection.Mode == active.Optimal {
			line = zoneStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderSelection(snap session.Snapshot) string {
	var b strings.Builder
	sel := snap.Selection

	b.WriteString(subtitleStyle.Render(strings.ToUpper(sel.Mode.String()[:1]) + sel.Mode.String()[1:] + " zone"))
	b.WriteString("\n")
	if !sel.Ready() {
		b.WriteString(dimStyle.Render("no active cell"))
		return boxStyle.Render(b.String())
	}

	b.WriteString(fmt.Sprintf("Hash       %s\n", zoneStyle.Render(sel.Hash)))
	b.WriteString(fmt.Sprintf("Precision  %s\n", statStyle.Render(precision.Describe(sel.Precision))))
	if sel.Mode == active.Fixed {
		b.WriteString(fmt.Sprintf("Fixed at   %d (optimal %d)\n", snap.Settings.FixedPrecision, precision.Select(snap.Viewport.Zoom)))
	}

	switch {
	case !snap.Settings.ShowZone:
		b.WriteString(dimStyle.Render("zone hidden"))
	case snap.Zone != nil:
		b.WriteString(renderBounds(snap.Zone.Bounds))
		b.WriteString(fmt.Sprintf("\nStyle      %s %.2f / %dpx", snap.Zone.Style.Color, snap.Zone.Style.Opacity, snap.Zone.Style.Weight))
	default:
		b.WriteString(dimStyle.Render("drawing..."))
	}
	if snap.Marker != nil {
		b.WriteString(fmt.Sprintf("\nMarker     %s", snap.Marker.Label))
	}
	return boxStyle.Render(b.String())
}

func renderBounds(bb models.BoundingBox) string {
	return fmt.Sprintf("SW %.5f, %.5f\nNE %.5f, %.5f",
		bb.BottomLeft.Lat, bb.BottomLeft.Lon, bb.TopRight.Lat, bb.TopRight.Lon)
}
