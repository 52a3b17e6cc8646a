package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBlogID     = "blog_id"
	KeyBlogName   = "blog_name"
	KeyMenuID     = "menu_id"
	KeyMenuName   = "menu_name"
	KeyOperation  = "operation"
	KeyMenus      = "menus"
	KeyLocations  = "locations"
	KeyDurationMS = "duration_ms"
	KeyAttempt    = "attempt"
	KeyJobID      = "job_id"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BlogID(id int64) slog.Attr        { return slog.Int64(KeyBlogID, id) }
func BlogName(name string) slog.Attr   { return slog.String(KeyBlogName, name) }
func MenuID(id int64) slog.Attr        { return slog.Int64(KeyMenuID, id) }
func MenuName(name string) slog.Attr   { return slog.String(KeyMenuName, name) }
func Operation(op string) slog.Attr    { return slog.String(KeyOperation, op) }
func Menus(n int) slog.Attr            { return slog.Int(KeyMenus, n) }
func Locations(n int) slog.Attr        { return slog.Int(KeyLocations, n) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
