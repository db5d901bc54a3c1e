package sl

import (
	"fmt"
	"log/slog"
	"strings"
)

func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret returns a string with the first 5 characters of the input string
// used to hide sensitive information in logs
func Secret(key, value string) slog.Attr {
	r := "***"
	if len(value) > 5 {
		r = fmt.Sprintf("%s***", value[0:5])
	}
	if value == "" {
		r = "?"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(r),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}

// Link logs an invite link without its joinable hash part
func Link(link string) slog.Attr {
	masked := link
	if i := strings.LastIndex(link, "/"); i >= 0 && i < len(link)-1 {
		hash := link[i+1:]
		if len(hash) > 4 {
			hash = hash[:4] + "***"
		}
		masked = link[:i+1] + hash
	}
	return slog.String("link", masked)
}
