package gdrive

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractFileID pulls the file ID out of a shared link. Two URL shapes are
// recognized:
//
//	https://drive.google.com/file/d/<id>/view
//	https://drive.google.com/open?id=<id>
//
// A bare ID (no slashes, no scheme) passes through unchanged, so values
// stored before links were introduced keep working.
func ExtractFileID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("empty link")
	}

	if !strings.Contains(link, "/") && !strings.Contains(link, "?") {
		return link, nil
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("unparseable link %q: %w", link, err)
	}

	// Shape 1: /file/d/<id>/...
	if idx := strings.Index(u.Path, "/file/d/"); idx >= 0 {
		rest := u.Path[idx+len("/file/d/"):]
		if end := strings.IndexByte(rest, '/'); end >= 0 {
			rest = rest[:end]
		}
		if rest != "" {
			return rest, nil
		}
	}

	// Shape 2: ?id=<id>
	if id := u.Query().Get("id"); id != "" {
		return id, nil
	}

	return "", fmt.Errorf("no file id found in link %q", link)
}
