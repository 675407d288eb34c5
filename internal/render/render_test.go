package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/gatewatch/internal/poller"
	"github.com/jpalmerr/gatewatch/internal/timefmt"
)

func TestBuildRows_OrderAndCount(t *testing.T) {
	records := make([]poller.Record, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, poller.Record{VehicleNumber: poller.Text(fmt.Sprintf("V%02d", i))})
	}

	rows := BuildRows(records, &timefmt.Formatter{})
	require.Len(t, rows, 25)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("V%02d", i), row.VehicleNumber)
	}
}

func TestBuildRows_Empty(t *testing.T) {
	rows := BuildRows(nil, &timefmt.Formatter{})
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestBuildRow_MissingFields(t *testing.T) {
	row := BuildRow(poller.Record{}, &timefmt.Formatter{})

	assert.Equal(t, Row{
		VehicleNumber: "N/A",
		Camera:        "N/A",
		EntryTime:     "N/A",
		ExitTime:      "N/A",
		Employee:      "N/A",
		EmployeeClass: ClassEmployeeNo,
	}, row)
}

func TestBuildRow_FullRecord(t *testing.T) {
	row := BuildRow(poller.Record{
		VehicleNumber: "MH01AB1234",
		Camera:        "entry",
		EntryTime:     "2024-01-15T10:30:00Z",
		ExitTime:      "N/A",
		Employee:      "Yes",
	}, &timefmt.Formatter{})

	assert.Equal(t, "MH01AB1234", row.VehicleNumber)
	assert.Equal(t, "entry", row.Camera)
	assert.Equal(t, "15-01-2024, 16:00:00", row.EntryTime)
	assert.Equal(t, "N/A", row.ExitTime)
	assert.Equal(t, "Yes", row.Employee)
	assert.Equal(t, ClassEmployeeYes, row.EmployeeClass)
}

func TestBuildRow_EmployeeClass(t *testing.T) {
	tests := []struct {
		employee string
		want     string
	}{
		{"Yes", ClassEmployeeYes},
		{"No", ClassEmployeeNo},
		{"yes", ClassEmployeeNo},
		{"", ClassEmployeeNo},
		{"maybe", ClassEmployeeNo},
	}

	for _, tt := range tests {
		row := BuildRow(poller.Record{Employee: poller.Text(tt.employee)}, &timefmt.Formatter{})
		assert.Equal(t, tt.want, row.EmployeeClass, "employee %q", tt.employee)
	}
}

func TestBuildRow_UnparsableTimePassesThrough(t *testing.T) {
	row := BuildRow(poller.Record{EntryTime: "not-a-date"}, &timefmt.Formatter{})
	assert.Equal(t, "not-a-date", row.EntryTime)
}

func TestWriteTableBody(t *testing.T) {
	rows := []Row{
		{VehicleNumber: "A1", Camera: "entry", EntryTime: "t1", ExitTime: "N/A", Employee: "Yes", EmployeeClass: ClassEmployeeYes},
		{VehicleNumber: "B2", Camera: "exit", EntryTime: "N/A", ExitTime: "t2", Employee: "No", EmployeeClass: ClassEmployeeNo},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTableBody(&buf, rows))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "<tr>"))
	assert.Equal(t, 10, strings.Count(out, "<td"))
	assert.Contains(t, out, `<td class="employee-yes">Yes</td>`)
	assert.Contains(t, out, `<td class="employee-no">No</td>`)
	assert.Less(t, strings.Index(out, "A1"), strings.Index(out, "B2"))
}

func TestWriteTableBody_Escapes(t *testing.T) {
	rows := []Row{{VehicleNumber: `<script>alert("x")</script>`, EmployeeClass: ClassEmployeeNo}}

	var buf bytes.Buffer
	require.NoError(t, WriteTableBody(&buf, rows))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestWriteTableBody_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableBody(&buf, nil))
	assert.Empty(t, buf.String())
}
