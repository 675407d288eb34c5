// Package render turns vehicle records into dashboard table rows.
package render

import (
	"html/template"
	"io"

	"github.com/jpalmerr/gatewatch/internal/poller"
)

// NotAvailable is shown in place of missing values.
const NotAvailable = "N/A"

// Employee cell classes.
const (
	ClassEmployeeYes = "employee-yes"
	ClassEmployeeNo  = "employee-no"
)

// TimeFormatter formats raw timestamp strings for display.
type TimeFormatter interface {
	Format(s string) string
}

// Row is the display form of one record.
type Row struct {
	VehicleNumber string `json:"vehicle_number"`
	Camera        string `json:"camera"`
	EntryTime     string `json:"entry_time"`
	ExitTime      string `json:"exit_time"`
	Employee      string `json:"employee"`
	EmployeeClass string `json:"employee_class"`
}

// BuildRows converts records into rows, one per record in the same order.
//
// Missing vehicle number, camera or employee values become "N/A". Entry and
// exit times are passed through f; an empty result also becomes "N/A".
func BuildRows(records []poller.Record, f TimeFormatter) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, BuildRow(r, f))
	}
	return rows
}

// BuildRow converts a single record.
func BuildRow(r poller.Record, f TimeFormatter) Row {
	class := ClassEmployeeNo
	if r.Employee == "Yes" {
		class = ClassEmployeeYes
	}

	return Row{
		VehicleNumber: orNA(r.VehicleNumber.String()),
		Camera:        orNA(r.Camera.String()),
		EntryTime:     orNA(f.Format(r.EntryTime.String())),
		ExitTime:      orNA(f.Format(r.ExitTime.String())),
		Employee:      orNA(r.Employee.String()),
		EmployeeClass: class,
	}
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

var tableBody = template.Must(template.New("records-body").Parse(
	`{{range .}}<tr>` +
		`<td>{{.VehicleNumber}}</td>` +
		`<td>{{.Camera}}</td>` +
		`<td>{{.EntryTime}}</td>` +
		`<td>{{.ExitTime}}</td>` +
		`<td class="{{.EmployeeClass}}">{{.Employee}}</td>` +
		"</tr>\n{{end}}"))

// WriteTableBody writes the rows as <tr> elements for the records table body.
// All cell values are HTML-escaped.
func WriteTableBody(w io.Writer, rows []Row) error {
	return tableBody.Execute(w, rows)
}
