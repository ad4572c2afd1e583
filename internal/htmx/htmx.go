// Package htmx decides how a request should be answered: enhanced clients
// (htmx) get HTML fragments, everything else gets a Post/Redirect/Get redirect.
package htmx

import (
	"io"
	"net/http"
	"strings"
)

// HeaderRequest is sent by htmx on every request it issues.
const HeaderRequest = "HX-Request"

type Mode int

const (
	Plain Mode = iota
	Enhanced
)

func (m Mode) String() string {
	if m == Enhanced {
		return "enhanced"
	}
	return "plain"
}

// IsRequest reports whether r carries HX-Request: true (case-insensitive).
func IsRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(HeaderRequest), "true")
}

func ModeOf(r *http.Request) Mode {
	if IsRequest(r) {
		return Enhanced
	}
	return Plain
}

// Response is either a Fragment or a Redirect.
type Response interface {
	Write(w http.ResponseWriter) error
	isResponse()
}

type Fragment struct {
	Status int
	HTML   string
}

func (f Fragment) Write(w http.ResponseWriter) error {
	status := f.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if f.HTML == "" {
		return nil
	}
	_, err := io.WriteString(w, f.HTML)
	return err
}

func (Fragment) isResponse() {}

// Redirect is always answered with 303 See Other so the browser follows up with GET.
type Redirect struct {
	Location string
}

func (rd Redirect) Write(w http.ResponseWriter) error {
	w.Header().Set("Location", rd.Location)
	w.WriteHeader(http.StatusSeeOther)
	return nil
}

func (Redirect) isResponse() {}

// Respond picks the response variant for mode. build is only called for
// enhanced clients; plain clients are redirected to location.
func Respond(mode Mode, location string, build func() (Fragment, error)) (Response, error) {
	if mode != Enhanced {
		return Redirect{Location: location}, nil
	}
	f, err := build()
	if err != nil {
		return nil, err
	}
	return f, nil
}
