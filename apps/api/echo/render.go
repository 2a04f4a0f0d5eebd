package echoapi

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/richtext"
	"github.com/trezcool/elimu/core/upload"
	appfs "github.com/trezcool/elimu/fs"
)

const templatesDir = "templates"

// page is the data every page template gets.
type page struct {
	Title   string
	AppName string
	Path    string
	Session *Session
	Flash   *flash
	BackURL string
	Form    interface{} // submitted values, re-rendered on errors
	Errors  map[string]string
	Data    interface{}
}

// uploadWidget is the model of the file upload dropzone.
type uploadWidget struct {
	Endpoint string
	Input    string // name of the hidden input receiving the URL
	Value    string
	Accept   string
	Label    string
}

var templateFuncs = template.FuncMap{
	"preview":  richtext.Sanitize,
	"markdown": richtext.Markdown,
	"excerpt":  richtext.Excerpt,
	"lower":    strings.ToLower,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"upload": func(endpoint, input, value, label string) uploadWidget {
		accept := "image/*"
		if endpoint == upload.EndpointProgramAttachment {
			accept = "application/pdf,text/plain,image/*,audio/*,video/*"
		}
		return uploadWidget{Endpoint: endpoint, Input: input, Value: value, Accept: accept, Label: label}
	},
	"field": func(errs map[string]string, name string) string {
		return errs[name]
	},
}

// renderer renders the page templates: every page is parsed on top of the "_" prefixed bases.
type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	bases, err := fs.Glob(appfs.FS, path.Join(templatesDir, "_*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing base templates")
	}
	pages, err := fs.Glob(appfs.FS, path.Join(templatesDir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing page templates")
	}

	r := &renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, fp := range pages {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.New(fname).Funcs(templateFuncs).ParseFS(appfs.FS, append(bases, fp)...)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", fname)
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl.Option("missingkey=zero")
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	// render into a buffer so that a failing template never sends half a page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return errors.Wrapf(err, "rendering template %q", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

// render fills the common page data and renders the page template `name`.
func (s *Server) render(ctx echo.Context, code int, name string, p page) error {
	p.AppName = s.conf.AppName
	p.Path = ctx.Request().URL.Path
	p.Session = getSession(ctx)
	if p.Flash == nil {
		p.Flash = popFlash(ctx)
	}
	fallback := "/"
	if p.Session != nil {
		fallback = p.Session.User.DashboardPath()
	}
	p.BackURL = backURL(ctx.Request(), fallback)
	if p.Title == "" {
		p.Title = s.conf.AppName
	} else {
		p.Title = fmt.Sprintf("%s | %s", p.Title, s.conf.AppName)
	}
	return ctx.Render(code, name, p)
}

// backURL is the target of the back button: the referring page when it is ours, else fallback.
func backURL(req *http.Request, fallback string) string {
	ref := req.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != req.Host) || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return fallback
	}
	// "//host" and "/\host" are protocol-relative to browsers
	if u.Path == req.URL.Path || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, "/\\") {
		return fallback
	}
	back := u.EscapedPath()
	if u.RawQuery != "" {
		back += "?" + u.RawQuery
	}
	return back
}
