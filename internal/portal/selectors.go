package portal

import "time"

// DefaultLoginURL is the student portal entry page.
const DefaultLoginURL = "https://login.vardhaman.org/"

// Page locators. The ASP.NET control ids are fixed by the portal.
const (
	usernameInput = `input[name="txtuser"]`
	passwordInput = `input[name="txtpass"]`
	loginButton   = `[name="btnLogin"]`

	popupClose    = `#ctl00_ContentPlaceHolder1_PopupCTRLMain_Image2`
	attendanceNav = `//*[@id="ctl00_ContentPlaceHolder1_divAttendance"]/div[3]/a/div[2]`
	totalCount    = `.attendance-count`

	subjectRows     = `.atten-sub.bus-stops ul li`
	subjectName     = `h5`
	subjectTimeSlot = `.stp-detail p.text-primary`
	subjectFaculty  = `.fac-status p.text-primary`
	subjectStatus   = `.fac-status .status`
)

// Readiness expressions polled in place of fixed sleeps.
const (
	loginSettled = `document.readyState === "complete" && document.getElementsByName("txtuser").length === 0`
	pageSettled  = `document.readyState === "complete"`
)

// attendanceSettled waits on the rows alone. The counter can render before
// them, and a snapshot taken then has an empty list.
const attendanceSettled = `document.querySelector(".atten-sub.bus-stops ul li") !== null`

const (
	loginFormTimeout  = 60 * time.Second
	popupTimeout      = 5 * time.Second
	attendanceTimeout = 10 * time.Second
	totalTimeout      = 5 * time.Second
	snapshotTimeout   = 10 * time.Second

	afterLoginSettle      = 3 * time.Second
	afterPopupSettle      = 2 * time.Second
	afterAttendanceSettle = 3 * time.Second

	pollInterval = 100 * time.Millisecond
)
