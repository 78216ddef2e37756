// Package web renders the staff dashboard and turns its form posts into
// relay actions.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/imsweb/internal/backend"
	"github.com/daap14/imsweb/internal/relay"
	"github.com/daap14/imsweb/internal/session"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Actions is the relay surface the pages drive.
type Actions interface {
	Login(ctx context.Context, w http.ResponseWriter, creds backend.Credentials) relay.Result[*session.Claims]
	Logout(ctx context.Context, w http.ResponseWriter) relay.Ack
	ListItems(ctx context.Context) relay.Result[[]backend.Item]
	AddItem(ctx context.Context, in backend.ItemInput) relay.Ack
	UpdateItem(ctx context.Context, id int64, in backend.ItemInput) relay.Ack
	DeleteItem(ctx context.Context, id int64) relay.Ack
	ListUsers(ctx context.Context) relay.Result[[]backend.User]
	AddUser(ctx context.Context, in backend.UserInput) relay.Ack
	UpdateUser(ctx context.Context, id int64, in backend.UserInput) relay.Ack
	DeleteUser(ctx context.Context, id int64) relay.Ack
}

// pageLayouts maps each page to the layout that wraps it.
var pageLayouts = map[string]string{
	"home":      "public",
	"login":     "public",
	"dashboard": "dashboard",
	"inventory": "dashboard",
	"users":     "dashboard",
}

var funcs = template.FuncMap{
	"price": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"longDate": func(t time.Time) string {
		return t.Format("Monday, January 2, 2006 at 03:04:05 PM")
	},
}

type page struct {
	tmpl   *template.Template
	layout string
}

// view is the data every template receives.
type view struct {
	Title   string
	Section string
	CSRF    string
	Flash   *Flash
	Claims  *session.Claims
	Now     time.Time
	Data    any
}

// Pages serves the HTML dashboard.
type Pages struct {
	actions Actions
	csrf    *CSRF
	flashes *flashes
	pages   map[string]page
	static  http.Handler
	now     func() time.Time
}

// New parses the embedded templates. authKey signs the CSRF and flash
// cookies; secure restricts them to HTTPS.
func New(actions Actions, authKey []byte, secure bool) (*Pages, error) {
	p := &Pages{
		actions: actions,
		csrf:    NewCSRF(authKey, secure),
		flashes: newFlashes(authKey, secure),
		pages:   make(map[string]page, len(pageLayouts)),
		now:     time.Now,
	}

	for name, layout := range pageLayouts {
		t, err := template.New(name).Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		p.pages[name] = page{tmpl: t, layout: layout}
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("opening static assets: %w", err)
	}
	p.static = http.StripPrefix("/static/", http.FileServer(http.FS(static)))

	return p, nil
}

// Register mounts the pages on r.
func (p *Pages) Register(r chi.Router) {
	r.Handle("/static/*", p.static)

	r.Group(func(r chi.Router) {
		r.Use(p.csrf.Protect)

		r.Get("/", p.home)
		r.Get("/login", p.loginForm)
		r.Post("/login", p.login)
		r.Post("/logout", p.logout)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireLogin)

			r.Get("/", p.profile)

			r.Get("/inventory", p.inventory)
			r.Post("/inventory", p.addItem)
			r.Post("/inventory/{id}", p.updateItem)
			r.Post("/inventory/{id}/delete", p.deleteItem)

			r.Get("/user", p.users)
			r.Post("/user", p.addUser)
			r.Post("/user/{id}", p.updateUser)
			r.Post("/user/{id}/delete", p.deleteUser)
		})
	})
}

// requireLogin sends visitors without a session token to the login page.
func requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// render executes the named page into a buffer and writes it with status.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	pg, ok := p.pages[name]
	if !ok {
		slog.Error("unknown page", "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	v.CSRF = p.csrf.Token(w, r)
	v.Flash = p.flashes.Pop(w, r)
	v.Claims = session.FromContext(r.Context()).Claims
	v.Now = p.now()

	var buf bytes.Buffer
	if err := pg.tmpl.ExecuteTemplate(&buf, pg.layout, v); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if pg.layout == "dashboard" {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "page", name, "error", err)
	}
}

// redirectWith stores the outcome of a relay action and redirects to target.
func (p *Pages) redirectWith(w http.ResponseWriter, r *http.Request, target string, success bool, message string) {
	p.flashes.Set(w, Flash{Success: success, Message: message})
	http.Redirect(w, r, target, http.StatusSeeOther)
}
