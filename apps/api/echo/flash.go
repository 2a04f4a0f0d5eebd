package echoapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	flashCookie = "flash"

	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-time notification shown as a toast on the next rendered page.
type flash struct {
	Kind    string
	Message string
}

func setFlash(ctx echo.Context, kind, msg string) {
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads & clears the pending flash, if any.
func popFlash(ctx echo.Context) *flash {
	c, err := ctx.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	ctx.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	val, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	parts := strings.SplitN(val, "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil
	}
	if parts[0] != flashError {
		parts[0] = flashSuccess
	}
	return &flash{Kind: parts[0], Message: parts[1]}
}
