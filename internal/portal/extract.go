package portal

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"attendbot/internal/attendance"
)

var innerWhitespace = regexp.MustCompile(`[\s\p{Zs}]+`)

// ParseSubjects reads the subject rows out of a rendered attendance page. A
// page without rows yields an empty slice; a row missing any field is an
// error for the whole page.
func ParseSubjects(r io.Reader) ([]attendance.Subject, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse attendance page: %w", err)
	}

	rows := doc.Find(subjectRows)
	subjects := make([]attendance.Subject, 0, rows.Length())

	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		s, err := parseRow(row)
		if err != nil {
			rowErr = fmt.Errorf("subject row %d: %w", i+1, err)
			return false
		}
		subjects = append(subjects, s)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return subjects, nil
}

func parseRow(row *goquery.Selection) (attendance.Subject, error) {
	name, err := field(row, subjectName, "subject name")
	if err != nil {
		return attendance.Subject{}, err
	}
	slot, err := field(row, subjectTimeSlot, "time slot")
	if err != nil {
		return attendance.Subject{}, err
	}
	faculty, err := field(row, subjectFaculty, "faculty")
	if err != nil {
		return attendance.Subject{}, err
	}
	status, err := field(row, subjectStatus, "status")
	if err != nil {
		return attendance.Subject{}, err
	}

	return attendance.Subject{
		Name:     name,
		TimeSlot: slot,
		Faculty:  faculty,
		Status:   attendance.Status(status),
	}, nil
}

func field(row *goquery.Selection, selector, what string) (string, error) {
	sel := row.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%s (%s) not found", what, selector)
	}
	return normalizeText(visibleText(sel)), nil
}

// invisible matches nodes a browser does not render as text.
const invisible = `script, style, template, noscript, [hidden], [style*="display:none"], [style*="display: none"], [style*="visibility:hidden"], [style*="visibility: hidden"]`

// visibleText is sel's text without the nodes matched by invisible. The
// document itself is left untouched.
func visibleText(sel *goquery.Selection) string {
	c := sel.Clone()
	c.Find(invisible).Remove()
	return c.Text()
}

func normalizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(s, " "))
}
