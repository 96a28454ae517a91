package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"time"
)

// Missing is shown in place of a reading the upstream did not report.
const Missing = "—"

const timestampLayout = "Jan 2, 2006, 3:04:05 PM"

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"headlineTemp": HeadlineTemperature,
	"temp":         Temperature,
	"humidity":     Humidity,
	"timezone":     TimezoneLabel,
}).ParseFS(templatesFS, "templates/index.html"))

// Page is the template input: the view plus the search box contents.
type Page struct {
	Query string
	View  View
	// Location renders timestamps; nil means time.Local.
	Location *time.Location
}

// Panel names which main panel the page shows. Exactly one applies.
func (p Page) Panel() string {
	switch {
	case p.View.Loading:
		return "loading"
	case p.View.Error != "":
		return "error"
	case p.View.Weather != nil:
		return "result"
	default:
		return "empty"
	}
}

// Time formats t in the page's location.
func (p Page) Time(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timestampLayout)
}

// Render writes the full page for p.
func Render(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}

// HeadlineTemperature rounds to a whole degree, halves toward +Inf (-2.5 shows -2).
func HeadlineTemperature(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%d°C", int(math.Floor(*v+0.5)))
}

// Temperature keeps one decimal.
func Temperature(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + "°C"
}

// Humidity shows the value as reported.
func Humidity(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "%"
}

// TimezoneLabel turns a UTC offset in seconds into whole hours, rounded down: 19800 is UTC+5.
func TimezoneLabel(seconds *int) string {
	if seconds == nil {
		return Missing
	}
	hours := int(math.Floor(float64(*seconds) / 3600))
	if hours >= 0 {
		return "UTC+" + strconv.Itoa(hours)
	}
	return "UTC" + strconv.Itoa(hours)
}
