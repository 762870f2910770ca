package httpapi

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// extensionMIME is a small allow-list; anything else falls back to
// application/octet-stream rather than guessing from content.
var extensionMIME = map[string]string{
	".htm":  "text/html",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/vnd.microsoft.icon",
	".txt":  "text/plain",
	".mp3":  "audio/mpeg",
	".wav":  "audio/x-wav",
	".ttf":  "font/ttf",
	".woff": "font/woff",
}

func mimeFor(path string) string {
	if mime, ok := extensionMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// handleStatic serves files from WWWRoot for any request that didn't match
// an /api/ route. Every request is GET/HEAD only; the path is
// percent-decoded and resolved, then checked to still lie inside WWWRoot
// before anything is opened, and a directory serves its index.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	decoded, err := url.PathUnescape(r.URL.Path)
	if err != nil {
		writeBadRequest(w, "malformed URL path")
		return
	}

	cleaned := filepath.Clean("/" + decoded)
	target := filepath.Join(s.WWWRoot, cleaned)

	root, err := filepath.Abs(s.WWWRoot)
	if err != nil {
		writeBadRequest(w, "server misconfigured www-root")
		return
	}
	absTarget, err := filepath.Abs(target)
	if err != nil || (absTarget != root && !strings.HasPrefix(absTarget, root+string(filepath.Separator))) {
		writeBadRequest(w, "path escapes www-root")
		return
	}

	info, err := statPath(absTarget)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.isDir {
		absTarget = filepath.Join(absTarget, "index.html")
		if _, err := statPath(absTarget); err != nil {
			http.NotFound(w, r)
			return
		}
	}

	w.Header().Set("Content-Type", mimeFor(absTarget))
	http.ServeFile(w, r, absTarget)
}

type pathInfo struct{ isDir bool }

func statPath(path string) (pathInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return pathInfo{}, err
	}
	return pathInfo{isDir: info.IsDir()}, nil
}
