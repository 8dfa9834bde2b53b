package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/components"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for value within [minVal, maxVal].
func (r *Renderer) DrawBar(x, y int32, label string, value, minVal, maxVal float32, format string, width int32) int32 {
	ratio := float32(0)
	if maxVal > minVal {
		ratio = (value - minVal) / (maxVal - minVal)
	}
	ratio = max(0, min(1, ratio))

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fillWidth := int32(float32(barWidth) * ratio)
	rl.DrawRectangle(barX, y+2, fillWidth, r.Theme.BarHeight, r.Theme.BarFill)

	rl.DrawText(fmt.Sprintf(format, value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawCenteredBar draws a bar centered at 0 for values in [-limit, +limit].
func (r *Renderer) DrawCenteredBar(x, y int32, label string, value, limit float32, format string, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	centerX := barX + barWidth/2
	rl.DrawLine(centerX, y+2, centerX, y+2+r.Theme.BarHeight, rl.Color{R: 80, G: 80, B: 80, A: 255})

	frac := float32(0)
	if limit > 0 {
		frac = float32(math.Min(math.Abs(float64(value/limit)), 1))
	}
	fillX := centerX
	fillWidth := int32(float32(barWidth/2) * frac)

	barColor := r.Theme.BarFillPositive
	if value < 0 {
		fillX = centerX - fillWidth
		barColor = r.Theme.BarFillNegative
	}
	rl.DrawRectangle(fillX, y+2, fillWidth, r.Theme.BarHeight, barColor)

	rl.DrawText(fmt.Sprintf(format, value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawSpacer adds vertical space and returns new Y.
func (r *Renderer) DrawSpacer(y int32, amount int32) int32 {
	return y + amount
}

// DrawField renders a field based on its descriptor.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	format := fd.Format
	if format == "" {
		format = "%.2f"
	}
	value := float32(0)
	if fd.Getter != nil {
		value = fd.Getter(data)
	}

	switch fd.Widget {
	case WidgetText:
		text := fmt.Sprintf(format, value)
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		}
		return r.DrawLabelValue(x, y, fd.Label, text)

	case WidgetBar:
		return r.DrawBar(x, y, fd.Label, value, fd.Range.Min, fd.Range.Max, format, width)

	case WidgetCenteredBar:
		return r.DrawCenteredBar(x, y, fd.Label, value, fd.Range.Max, format, width)

	case WidgetSection:
		return r.DrawSectionHeader(x, y, fd.Label)

	case WidgetSpacer:
		return r.DrawSpacer(y, 6)
	}

	return y
}

// DrawSection renders a section with header and fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}

	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}

	for _, fd := range sd.Fields {
		if fd.Visible != nil && !fd.Visible(data) {
			continue
		}
		y = r.DrawField(x, y, fd, data, width)
	}

	return y + 4 // Small gap after section
}

// SectionHeight returns the height DrawSection will use for sd.
func (r *Renderer) SectionHeight(sd SectionDescriptor) int32 {
	h := int32(4)
	if sd.Title != "" {
		h += r.Theme.LineHeight
	}
	for _, fd := range sd.Fields {
		switch fd.Widget {
		case WidgetBar, WidgetCenteredBar:
			h += r.Theme.LineHeight + 2
		case WidgetSpacer:
			h += 6
		default:
			h += r.Theme.LineHeight
		}
	}
	return h
}

// ComponentSections groups component field metadata into sections. get
// extracts a field value by ID from the data passed to DrawSection.
func ComponentSections(fields []components.FieldDescriptor, get func(data any, id string) float32) []SectionDescriptor {
	var sections []SectionDescriptor
	index := make(map[string]int)

	for _, f := range fields {
		i, ok := index[f.Group]
		if !ok {
			i = len(sections)
			index[f.Group] = i
			sections = append(sections, SectionDescriptor{ID: f.Group, Title: groupTitle(f.Group)})
		}

		id := f.ID
		fd := FieldDescriptor{
			ID:     f.ID,
			Label:  f.Label,
			Widget: WidgetText,
			Format: f.Format,
			Range:  FieldRange{Min: f.Min, Max: f.Max},
			Getter: func(data any) float32 { return get(data, id) },
		}
		switch {
		case f.IsBar:
			fd.Widget = WidgetBar
		case f.Min < 0 && f.Max > 0:
			fd.Widget = WidgetCenteredBar
		}
		sections[i].Fields = append(sections[i].Fields, fd)
	}
	return sections
}

func groupTitle(group string) string {
	switch group {
	case "motion":
		return "Motion"
	case "position":
		return "Position"
	case "steering":
		return "Steering"
	default:
		return group
	}
}
