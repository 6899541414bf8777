package report

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/warp/shift-payroll/payroll"
)

// Chart dimensions in pixels.
const (
	chartWidth  = 480
	chartHeight = 400
	chartRadius = 140.0
)

// ErrNoShares is returned when a month has nothing to chart.
var ErrNoShares = errors.New("no salary to chart")

// WriteShareChart draws the month's salary shares as a pie chart PNG.
// Wedges start at twelve o'clock and run counter-clockwise in configuration
// order. Jobs with no positive salary get no wedge.
func WriteShareChart(w io.Writer, res *payroll.Result) error {
	shares := Shares(res)
	if len(shares) == 0 {
		return ErrNoShares
	}

	var total float64
	for _, s := range shares {
		if s.Salary.IsPositive() {
			total += s.Salary.InexactFloat64()
		}
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#333333")
	dc.DrawStringAnchored(fmt.Sprintf("Salary share %s", res.Month), chartWidth/2, 24, 0.5, 0.5)

	cx, cy := float64(chartWidth)/2, float64(chartHeight)/2+12
	angle := -math.Pi / 2
	for _, s := range shares {
		if !s.Salary.IsPositive() {
			continue
		}
		sweep := 2 * math.Pi * s.Salary.InexactFloat64() / total
		from, to := angle-sweep, angle

		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, chartRadius, from, to)
		dc.ClosePath()
		dc.SetHexColor(s.Color)
		dc.FillPreserve()
		dc.SetHexColor("#ffffff")
		dc.SetLineWidth(2)
		dc.Stroke()

		mid := (from + to) / 2
		dc.SetHexColor("#333333")
		dc.DrawStringAnchored(s.Label,
			cx+(chartRadius+28)*math.Cos(mid), cy+(chartRadius+28)*math.Sin(mid), 0.5, 0.5)
		dc.SetHexColor("#ffffff")
		dc.DrawStringAnchored(s.Percent.StringFixed(1)+"%",
			cx+chartRadius*0.6*math.Cos(mid), cy+chartRadius*0.6*math.Sin(mid), 0.5, 0.5)

		angle = from
	}

	return dc.EncodePNG(w)
}
