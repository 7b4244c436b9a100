package laptimes

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrSessionNotFound    = errors.New("laptimes: session not found")
	ErrMappingNotFound    = errors.New("laptimes: subcategory mapping not found")
	ErrTrackMapNotFound   = errors.New("laptimes: track map not found")
	ErrInvalidSessionName = errors.New("laptimes: invalid session name")
)

// Store persists uploaded timing exports, the driver subcategory mapping and track map images.
type Store interface {
	SaveSession(name string, data []byte) error
	LoadSession(name string) ([]byte, error)
	ListSessions() ([]string, error)
	DeleteSession(name string) error

	LoadMapping() ([]byte, error)
	SaveMapping(data []byte) error

	ListTrackMaps() ([]string, error)
	LoadTrackMap(name string) ([]byte, error)
	SaveTrackMap(name string, data []byte) error
}

const sessionFileExtension = ".csv"

var trackMapExtensions = []string{".png", ".jpg", ".jpeg", ".svg", ".gif"}

// SanitiseSessionName reduces an uploaded filename to a safe base name ending in .csv.
func SanitiseSessionName(name string) (string, error) {
	name = strings.TrimSpace(filepath.Base(filepath.ToSlash(strings.ReplaceAll(name, "\\", "/"))))

	if name == "" || name == "." || name == "/" || name == ".." {
		return "", ErrInvalidSessionName
	}

	if !strings.EqualFold(filepath.Ext(name), sessionFileExtension) {
		name += sessionFileExtension
	}

	if strings.TrimSuffix(name, filepath.Ext(name)) == "" {
		return "", ErrInvalidSessionName
	}

	return name, nil
}

func isTrackMapName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))

	for _, allowed := range trackMapExtensions {
		if ext == allowed {
			return true
		}
	}

	return false
}

func sanitiseTrackMapName(name string) (string, error) {
	name = strings.TrimSpace(filepath.Base(filepath.ToSlash(strings.ReplaceAll(name, "\\", "/"))))

	if !isTrackMapName(name) || strings.TrimSuffix(name, filepath.Ext(name)) == "" {
		return "", ErrTrackMapNotFound
	}

	return name, nil
}

func sortedNames(names []string) []string {
	sort.Strings(names)

	return names
}
