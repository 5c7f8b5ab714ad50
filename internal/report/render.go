package report

import (
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/services"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	summaryStyle = lipgloss.NewStyle().
			Bold(true)

	lateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(separatorStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(headers...)
}

// RenderFleet lists every vehicle with its driver and loaded route.
func RenderFleet(fleet *domain.Fleet) string {
	var b strings.Builder
	b.WriteString(summaryStyle.Render(fmt.Sprintf(
		"Fleet (%d vehicles, %d drivers, %d parcels)",
		fleet.Len(), len(fleet.Drivers), len(fleet.Parcels()),
	)))
	b.WriteString("\n")

	t := newTable("Vehicle", "Driver", "Load", "Departs", "Route")
	for _, v := range fleet.Vehicles {
		driver := v.Driver
		if driver == "" {
			driver = "-"
		}
		t.Row(
			strconv.Itoa(v.Number()),
			driver,
			fmt.Sprintf("%d/%d", len(v.Route), v.MaxCapacity),
			v.DepartAt.String(),
			routeIDs(v.Route),
		)
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// RenderTimeline prints every event in timeline order. Replayed times are
// shown when known.
func RenderTimeline(tl *domain.Timeline) string {
	var b strings.Builder
	b.WriteString(summaryStyle.Render(fmt.Sprintf("Timeline (%d events)", tl.Len())))
	b.WriteString("\n")

	if tl.Len() == 0 {
		b.WriteString("No events.\n")
		return b.String()
	}

	t := newTable("Time", "Vehicle", "Action", "Parcel", "Address", "Deadline")
	for _, e := range tl.Events {
		parcel, deadline := "-", "-"
		if e.Parcel != nil {
			parcel = strconv.Itoa(int(e.Parcel.ID))
			deadline = deadlineCell(e.Parcel, e.EffectiveAt())
		}
		t.Row(
			e.EffectiveAt().String(),
			strconv.Itoa(e.Vehicle.Number()),
			e.Action.String(),
			parcel,
			e.Address,
			deadline,
		)
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// RenderMileage shows the replayed distance per vehicle and the fleet total.
func RenderMileage(fleet *domain.Fleet) string {
	var b strings.Builder

	t := newTable("Vehicle", "Driver", "Returned", "Miles")
	for _, v := range fleet.Vehicles {
		returned := "-"
		if v.ReturnAt != nil {
			returned = v.ReturnAt.String()
		}
		t.Row(strconv.Itoa(v.Number()), v.Driver, returned, fmt.Sprintf("%.1f", v.Distance))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(fmt.Sprintf("Total mileage: %.1f", fleet.TotalDistance())))
	b.WriteString("\n")
	return b.String()
}

// RenderStatus prints a point-in-time parcel status table.
func RenderStatus(snapshots []services.ParcelSnapshot, at domain.Clock) string {
	var b strings.Builder

	counts := map[domain.Status]int{}
	for _, s := range snapshots {
		counts[s.Parcel.Status]++
	}
	b.WriteString(summaryStyle.Render(fmt.Sprintf(
		"Status at %s (%d at hub, %d en route, %d delivered)",
		at, counts[domain.AtHub], counts[domain.EnRoute], counts[domain.Delivered],
	)))
	b.WriteString("\n")

	t := newTable("Parcel", "Address", "Deadline", "Vehicle", "Status", "Delivered")
	for _, s := range snapshots {
		p := s.Parcel
		vehicle, delivered := "-", "-"
		if p.Vehicle != nil {
			vehicle = strconv.Itoa(*p.Vehicle + 1)
		}
		deadline := deadlineCell(p, at)
		if p.DeliveredAt != nil {
			delivered = p.DeliveredAt.String()
			deadline = deadlineCell(p, *p.DeliveredAt)
		}
		t.Row(strconv.Itoa(int(p.ID)), s.Address, deadline, vehicle, p.Status.String(), delivered)
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

func routeIDs(route []*domain.Parcel) string {
	if len(route) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(route))
	for _, p := range route {
		ids = append(ids, strconv.Itoa(int(p.ID)))
	}
	return strings.Join(ids, " ")
}

// deadlineCell marks a deadline red once t has passed it.
func deadlineCell(p *domain.Parcel, t domain.Clock) string {
	if !p.HasDeadline() {
		return "EOD"
	}
	if t > p.Deadline {
		return lateStyle.Render(p.Deadline.String())
	}
	return p.Deadline.String()
}
