package report

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ibeckermayer/postdeck/internal/config"
)

// ErrNoReports is returned by LatestReport when nothing was saved yet.
var ErrNoReports = errors.New("no reports saved yet")

const fileLayout = "2006-01-02T15-04-05"

// Dir returns the directory reports are saved to.
func Dir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "reports"), nil
}

// SaveReport writes the HTML and plain text bodies of r to dir, named after
// its creation time. Returns the path of the HTML file.
func SaveReport(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	base := filepath.Join(dir, r.CreatedAt.Format(fileLayout))
	if err := os.WriteFile(base+".txt", []byte(r.PlainBody), 0644); err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".html", []byte(r.HTMLBody), 0644); err != nil {
		return "", err
	}
	return base + ".html", nil
}

// LatestReport returns the path of the newest HTML report in dir.
func LatestReport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoReports
		}
		return "", err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrNoReports
	}
	// Timestamped names sort chronologically
	slices.Sort(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
