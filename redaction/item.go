package redaction

import (
	"fmt"

	"webproof-redaction/shared"
)

// Item is one entry of a redaction policy. The set of implementations is
// closed: every item type is declared in this file and each one routes itself
// through Visitor, so adding a kind means adding a Visitor method and every
// visitor in the package stops compiling until it handles the new kind.
type Item interface {
	// Side is the transcript half the item applies to.
	Side() shared.Side
	// Accept calls the Visitor method for the item's concrete type.
	Accept(v Visitor) error
	fmt.Stringer

	item()
}

// Visitor has one method per Item kind.
type Visitor interface {
	VisitHeaders(Headers) error
	VisitHeadersExcept(HeadersExcept) error
	VisitURLQuery(URLQuery) error
	VisitURLQueryExcept(URLQueryExcept) error
	VisitJSONBody(JSONBody) error
	VisitJSONBodyExcept(JSONBodyExcept) error
	VisitJSONPathQuery(JSONPathQuery) error
}

// Headers redacts the values of the named headers on one side.
type Headers struct {
	On    shared.Side
	Names []string
}

// HeadersExcept redacts every header value on one side except the named ones.
type HeadersExcept struct {
	On    shared.Side
	Names []string
}

// URLQuery redacts the named query parameters of the request target.
type URLQuery struct {
	Names []string
}

// URLQueryExcept redacts every query parameter of the request target except
// the named ones.
type URLQueryExcept struct {
	Names []string
}

// JSONBody redacts the string values at the given paths of the response body.
type JSONBody struct {
	Paths []string
}

// JSONBodyExcept redacts every string leaf of the response body except those
// at the given paths.
type JSONBodyExcept struct {
	Paths []string
}

// JSONPathQuery redacts every string matched by the JSONPath expressions in
// the response body.
type JSONPathQuery struct {
	Queries []string
}

func (i Headers) Side() shared.Side { return i.On }
func (i HeadersExcept) Side() shared.Side { return i.On }
func (URLQuery) Side() shared.Side { return shared.SideRequest }
func (URLQueryExcept) Side() shared.Side { return shared.SideRequest }
func (JSONBody) Side() shared.Side { return shared.SideResponse }
func (JSONBodyExcept) Side() shared.Side { return shared.SideResponse }
func (JSONPathQuery) Side() shared.Side { return shared.SideResponse }

func (i Headers) Accept(v Visitor) error { return v.VisitHeaders(i) }
func (i HeadersExcept) Accept(v Visitor) error { return v.VisitHeadersExcept(i) }
func (i URLQuery) Accept(v Visitor) error { return v.VisitURLQuery(i) }
func (i URLQueryExcept) Accept(v Visitor) error { return v.VisitURLQueryExcept(i) }
func (i JSONBody) Accept(v Visitor) error { return v.VisitJSONBody(i) }
func (i JSONBodyExcept) Accept(v Visitor) error { return v.VisitJSONBodyExcept(i) }
func (i JSONPathQuery) Accept(v Visitor) error { return v.VisitJSONPathQuery(i) }

func (i Headers) String() string { return fmt.Sprintf("%s.headers%q", i.On, i.Names) }
func (i HeadersExcept) String() string { return fmt.Sprintf("%s.headers_except%q", i.On, i.Names) }
func (i URLQuery) String() string { return fmt.Sprintf("request.url_query%q", i.Names) }
func (i URLQueryExcept) String() string { return fmt.Sprintf("request.url_query_except%q", i.Names) }
func (i JSONBody) String() string { return fmt.Sprintf("response.json_body%q", i.Paths) }
func (i JSONBodyExcept) String() string { return fmt.Sprintf("response.json_body_except%q", i.Paths) }
func (i JSONPathQuery) String() string { return fmt.Sprintf("response.json_path%q", i.Queries) }

func (Headers) item() {}
func (HeadersExcept) item() {}
func (URLQuery) item() {}
func (URLQueryExcept) item() {}
func (JSONBody) item() {}
func (JSONBodyExcept) item() {}
func (JSONPathQuery) item() {}

// Config is an ordered redaction policy. Order does not change the computed
// ranges; it is kept for error messages.
type Config []Item
