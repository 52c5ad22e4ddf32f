package portal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendbot/internal/attendance"
)

const attendancePage = `<!DOCTYPE html>
<html><body>
<div class="attendance-count">82.35%</div>
<div class="atten-sub bus-stops">
  <ul>
    <li>
      <h5>  Mathematics
        III </h5>
      <div class="stp-detail"><p class="text-muted">Time</p><p class="text-primary">09:10 - 10:00</p></div>
      <div class="fac-status">
        <p class="text-primary">Dr.&nbsp;Rao</p>
        <span class="status">Present</span>
      </div>
    </li>
    <li>
      <h5>Operating Systems</h5>
      <div class="stp-detail"><p class="text-primary">10:00 - 10:50</p></div>
      <div class="fac-status">
        <p class="text-primary">Ms. Iyer</p>
        <span class="status">Absent</span>
      </div>
    </li>
    <li>
      <h5>Library</h5>
      <div class="stp-detail"><p class="text-primary">11:00 - 11:50</p></div>
      <div class="fac-status">
        <p class="text-primary">-</p>
        <span class="status">Cancelled</span>
      </div>
    </li>
  </ul>
</div>
</body></html>`

func TestParseSubjects(t *testing.T) {
	subjects, err := ParseSubjects(strings.NewReader(attendancePage))
	require.NoError(t, err)

	want := []attendance.Subject{
		{Name: "Mathematics III", TimeSlot: "09:10 - 10:00", Faculty: "Dr. Rao", Status: attendance.StatusPresent},
		{Name: "Operating Systems", TimeSlot: "10:00 - 10:50", Faculty: "Ms. Iyer", Status: attendance.StatusAbsent},
		{Name: "Library", TimeSlot: "11:00 - 11:50", Faculty: "-", Status: "Cancelled"},
	}
	if diff := cmp.Diff(want, subjects); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSubjectsNoRows(t *testing.T) {
	subjects, err := ParseSubjects(strings.NewReader(`<html><body><div class="atten-sub bus-stops"><ul></ul></div></body></html>`))
	require.NoError(t, err)
	assert.NotNil(t, subjects)
	assert.Empty(t, subjects)

	subjects, err = ParseSubjects(strings.NewReader(`<html><body><p>Session expired</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestParseSubjectsMissingFieldAbortsPage(t *testing.T) {
	page := `<html><body><div class="atten-sub bus-stops"><ul>
	<li><h5>Math</h5><div class="stp-detail"><p class="text-primary">9</p></div>
	    <div class="fac-status"><p class="text-primary">A</p><span class="status">Present</span></div></li>
	<li><h5>Physics</h5><div class="stp-detail"><p class="text-primary">10</p></div>
	    <div class="fac-status"><p class="text-primary">B</p></div></li>
	</ul></div></body></html>`

	subjects, err := ParseSubjects(strings.NewReader(page))
	require.Error(t, err)
	assert.Nil(t, subjects)
	assert.Contains(t, err.Error(), "subject row 2")
	assert.Contains(t, err.Error(), "status")
}

func TestParseSubjectsIgnoresRowsOutsideList(t *testing.T) {
	page := `<html><body>
	<ul><li><h5>Not a subject</h5></li></ul>
	<div class="atten-sub"><ul><li><h5>Wrong container</h5></li></ul></div>
	</body></html>`

	subjects, err := ParseSubjects(strings.NewReader(page))
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestParseSubjectsSkipsHiddenText(t *testing.T) {
	page := `<html><body><div class="atten-sub bus-stops"><ul>
	<li><h5>Math<script>var x = 1;</script></h5>
	    <div class="stp-detail"><p class="text-primary">09:00 <span hidden>(moved)</span></p></div>
	    <div class="fac-status"><p class="text-primary">Dr. A<style>.x{}</style></p>
	    <span class="status">Present<span class="tip" style="display: none">Marked by Dr. A</span></span></div></li>
	</ul></div></body></html>`

	subjects, err := ParseSubjects(strings.NewReader(page))
	require.NoError(t, err)
	want := []attendance.Subject{
		{Name: "Math", TimeSlot: "09:00", Faculty: "Dr. A", Status: attendance.StatusPresent},
	}
	if diff := cmp.Diff(want, subjects); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "✅ Present", subjects[0].Status.Label())
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a\n\t b   c  "))
	assert.Equal(t, "82%", normalizeText("82%\u200b"))
	assert.Equal(t, "", normalizeText(" \n "))
}
