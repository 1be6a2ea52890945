package scene

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-json"

	"github.com/litescript/ls-orrery/internal/motion"
)

// SnapshotExport is the JSON-serializable state of a scene at one instant.
type SnapshotExport struct {
	Elapsed    float64          `json:"elapsed_seconds"`
	Extent     float64          `json:"extent"`
	Central    CentralExport    `json:"central"`
	Categories []CategoryExport `json:"categories"`
}

// CentralExport is the central body's state.
type CentralExport struct {
	Rotation    float64 `json:"rotation_rad"`
	CoronaScale float64 `json:"corona_scale"`
}

// CategoryExport is one ring and its bodies.
type CategoryExport struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Radius float64      `json:"radius"`
	Tilt   float64      `json:"tilt_rad"`
	Normal [3]float64   `json:"normal"`
	Speed  float64      `json:"speed_rad_s"`
	Period float64      `json:"period_seconds"`
	Bodies []BodyExport `json:"bodies"`
}

// BodyExport is one body's state.
type BodyExport struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Size      float64    `json:"size"`
	Angle     float64    `json:"angle_rad"`
	Position  [3]float64 `json:"position"`
	GlowScale float64    `json:"glow_scale"`
	HasIcon   bool       `json:"has_icon"`
}

// ExportSnapshot evaluates every body at elapsed time t.
func ExportSnapshot(s *Scene, t float64) *SnapshotExport {
	cs := motion.AdvanceCentral(t)
	export := &SnapshotExport{
		Elapsed: t,
		Extent:  s.Extent(),
		Central: CentralExport{Rotation: cs.Rotation, CoronaScale: cs.CoronaScale},
	}
	for ci, cat := range s.Config.Categories() {
		n := mgl64.TransformNormal(mgl64.Vec3{0, 1, 0}, s.Rings[ci].Transform).Normalize()
		export.Categories = append(export.Categories, CategoryExport{
			Name:   cat.Name,
			Color:  cat.Color.Hex(),
			Radius: cat.RingRadius,
			Tilt:   cat.OrbitTilt,
			Normal: [3]float64{n.X(), n.Y(), n.Z()},
			Speed:  motion.Speed(cat.RingRadius),
			Period: motion.Period(cat.RingRadius),
		})
	}
	for _, b := range s.Bodies {
		st := motion.AdvanceBody(b.Params, t)
		c := &export.Categories[b.Category]
		c.Bodies = append(c.Bodies, BodyExport{
			ID:        int(b.ID),
			Name:      b.Name,
			Size:      b.Size,
			Angle:     motion.NormalizeAngle(st.Angle),
			Position:  [3]float64{st.World.X(), st.World.Y(), st.World.Z()},
			GlowScale: st.GlowScale,
			HasIcon:   b.Icon() != nil,
		})
	}
	return export
}

// WriteJSON writes the snapshot as indented JSON.
func (e *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// SummaryRow is one line of the orbit summary table.
type SummaryRow struct {
	Category string
	Radius   float64
	Bodies   int
	Speed    float64
	Period   float64
	Names    string
}

// GenerateSummaryRows builds one row per category in display order.
func GenerateSummaryRows(s *Scene) []SummaryRow {
	var rows []SummaryRow
	for _, cat := range s.Config.Categories() {
		names := make([]string, len(cat.Bodies))
		for i, b := range cat.Bodies {
			names[i] = b.Name
		}
		rows = append(rows, SummaryRow{
			Category: cat.Name,
			Radius:   cat.RingRadius,
			Bodies:   len(cat.Bodies),
			Speed:    motion.Speed(cat.RingRadius),
			Period:   motion.Period(cat.RingRadius),
			Names:    strings.Join(names, ", "),
		})
	}
	return rows
}

// WriteSummaryTable writes a text table of rings and their orbital speeds.
func WriteSummaryTable(w io.Writer, s *Scene) {
	rows := GenerateSummaryRows(s)

	fmt.Fprintln(w, "Orbit summary")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	fmt.Fprintf(w, "%-14s %6s %6s %10s %10s  %s\n",
		"Category", "Radius", "Bodies", "Speed", "Period", "Members")
	fmt.Fprintln(w, strings.Repeat("─", 90))

	total := 0
	for _, r := range rows {
		fmt.Fprintf(w, "%-14s %6.1f %6d %8.4f/s %9.1fs  %s\n",
			truncateStr(r.Category, 14),
			r.Radius,
			r.Bodies,
			r.Speed,
			r.Period,
			truncateStr(r.Names, 40),
		)
		total += r.Bodies
	}

	fmt.Fprintf(w, "\nTotal: %d bodies on %d rings\n", total, len(rows))
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-2]) + ".."
}
