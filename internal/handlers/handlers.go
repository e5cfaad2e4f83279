package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"gas-tracker/internal/access"
	"gas-tracker/internal/models"
	"gas-tracker/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// TimezoneCookieName holds the user's display timezone.
	TimezoneCookieName = "tz"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
	// DefaultPageSize is the number of entries per list page.
	DefaultPageSize = 20
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	templateDir  string
	secureCookie bool
	pageSize     int
	logger       logrus.FieldLogger
	now          func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the logger used for request failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Handlers) { h.logger = l }
}

// WithPageSize sets the number of entries shown per list page.
func WithPageSize(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, templateDir string, secureCookie bool, opts ...Option) *Handlers {
	h := &Handlers{
		db:           db,
		templateDir:  templateDir,
		secureCookie: secureCookie,
		pageSize:     DefaultPageSize,
		logger:       logrus.StandardLogger(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AddPath is the creation route of an entry kind.
func AddPath(kind models.EntryKind) string {
	switch kind {
	case models.KindGasPurchase:
		return "/add-purchase"
	case models.KindMaintenance:
		return "/add-maintenance"
	case models.KindToll:
		return "/add-toll"
	}
	return "/"
}

// CarPath is the detail route of a car.
func CarPath(car models.Car) string {
	return "/car/" + car.ID.String() + "/"
}

// EntryPath is the update or delete route of an entry.
func EntryPath(e models.Entry, action string) string {
	b := e.Base()
	return fmt.Sprintf("/car/%s/%s/%s/%s", b.CarID.UUID, e.Kind(), b.ID, action)
}

// ListPath is the car-scoped list route of an entry kind.
func ListPath(car models.Car, kind models.EntryKind) string {
	return "/car/" + car.ID.String() + "/" + kind.ListSegment()
}

func (h *Handlers) funcs(r *http.Request) template.FuncMap {
	loc := h.location(r)
	return template.FuncMap{
		"currentUser": func() *models.User { return GetUserFromContext(r) },
		"navActive": func(path string) string {
			if r.URL.Path == path {
				return "active"
			}
			return ""
		},
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"fixed": func(places int32, d decimal.Decimal) string { return d.StringFixed(places) },
		"localTime": func(t time.Time) string {
			return t.In(loc).Format("Jan 2, 2006 15:04")
		},
		"date":      func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"timezone":  func() string { return loc.String() },
		"addPath":   AddPath,
		"carPath":   CarPath,
		"entryPath": EntryPath,
		"listPath":  ListPath,
		"tank": func(tanks map[string]decimal.Decimal, e models.Entry) string {
			if mpg, ok := tanks[e.Base().ID.String()]; ok {
				return mpg.StringFixed(2)
			}
			return "-"
		},
	}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	h.renderStatus(w, r, http.StatusOK, viewName, data)
}

func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, viewName string, data any) {
	tmpl, err := template.New("base.html").Funcs(h.funcs(r)).ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		h.logger.WithError(err).WithField("view", viewName).Error("template parse failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, target, data); err != nil {
		h.logger.WithError(err).WithField("view", viewName).Error("template execution failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect sends the browser to path after a successful form post.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Location", fmt.Sprintf(`{"path":%q, "target":"#content"}`, path))
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// fail maps an error to its response.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, access.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, access.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		fields := logrus.Fields{"method": r.Method, "path": r.URL.Path}
		if u := GetUserFromContext(r); u != nil {
			fields["user_id"] = u.ID
		}
		h.logger.WithError(err).WithFields(fields).Error("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Pagination describes the page of a list being shown.
type Pagination struct {
	Page     int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

func (h *Handlers) page(r *http.Request) (storage.Page, int) {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		n = 1
	}
	return storage.Page{Limit: h.pageSize, Offset: (n - 1) * h.pageSize}, n
}

func (h *Handlers) pagination(page, total int) Pagination {
	return Pagination{
		Page:     page,
		HasPrev:  page > 1,
		HasNext:  page*h.pageSize < total,
		PrevPage: page - 1,
		NextPage: page + 1,
	}
}
