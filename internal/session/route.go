package session

import "strings"

// Page is one screen of the application
type Page string

const (
	PageLogin          Page = "login"
	PageDashboard      Page = "dashboard"
	PageBuilder        Page = "builder"
	PageAnswer         Page = "answer"
	PageAnswerComplete Page = "answer-complete"
	PageResults        Page = "results"
)

func (p Page) Valid() bool {
	switch p {
	case PageLogin, PageDashboard, PageBuilder, PageAnswer, PageAnswerComplete, PageResults:
		return true
	}
	return false
}

// needsForm reports whether the page is meaningless without a form id
func (p Page) needsForm() bool {
	switch p {
	case PageBuilder, PageAnswer, PageAnswerComplete, PageResults:
		return true
	}
	return false
}

// public pages are reachable without an identity
func (p Page) public() bool {
	return p == PageLogin || p == PageAnswer || p == PageAnswerComplete
}

// Route is a page plus an optional form id, rendered as "page/formId"
type Route struct {
	Page   Page
	FormID string
}

// ParseRoute reads a URL fragment such as "#/answer/f1". Unknown pages map to
// the dashboard.
func ParseRoute(fragment string) Route {
	clean := strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	clean = strings.TrimPrefix(clean, "/")

	page, formID, _ := strings.Cut(clean, "/")
	formID, _, _ = strings.Cut(formID, "/")

	p := Page(page)
	if !p.Valid() {
		return Route{Page: PageDashboard}
	}
	return Route{Page: p, FormID: formID}
}

func (r Route) String() string {
	if r.FormID == "" {
		return string(r.Page)
	}
	return string(r.Page) + "/" + r.FormID
}

// AnswerURL is the link respondents open to answer formID. Any fragment on
// base is replaced.
func AnswerURL(base, formID string) string {
	base, _, _ = strings.Cut(base, "#")
	return base + "#/" + Route{Page: PageAnswer, FormID: formID}.String()
}
