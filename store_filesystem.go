package laptimes

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FilesystemStore keeps each session as a file in SessionsDir and track maps in MapsDir.
type FilesystemStore struct {
	sessionsDir string
	mapsDir     string
	mappingFile string
}

func NewFilesystemStore(sessionsDir, mapsDir, mappingFile string) (*FilesystemStore, error) {
	for _, dir := range []string{sessionsDir, mapsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "laptimes: could not create %s", dir)
		}
	}

	return &FilesystemStore{
		sessionsDir: sessionsDir,
		mapsDir:     mapsDir,
		mappingFile: mappingFile,
	}, nil
}

func (fs *FilesystemStore) SaveSession(name string, data []byte) error {
	name, err := SanitiseSessionName(name)

	if err != nil {
		return err
	}

	return writeFile(filepath.Join(fs.sessionsDir, name), data)
}

func (fs *FilesystemStore) LoadSession(name string) ([]byte, error) {
	name, err := SanitiseSessionName(name)

	if err != nil {
		return nil, err
	}

	data, err := ioutil.ReadFile(filepath.Join(fs.sessionsDir, name))

	if os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "laptimes: could not read session %s", name)
	}

	return data, nil
}

func (fs *FilesystemStore) ListSessions() ([]string, error) {
	files, err := ioutil.ReadDir(fs.sessionsDir)

	if err != nil {
		return nil, errors.Wrap(err, "laptimes: could not list sessions")
	}

	var sessions []string

	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), sessionFileExtension) {
			continue
		}

		sessions = append(sessions, file.Name())
	}

	return sortedNames(sessions), nil
}

func (fs *FilesystemStore) DeleteSession(name string) error {
	name, err := SanitiseSessionName(name)

	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(fs.sessionsDir, name))

	if os.IsNotExist(err) {
		return ErrSessionNotFound
	}

	return err
}

func (fs *FilesystemStore) LoadMapping() ([]byte, error) {
	data, err := ioutil.ReadFile(fs.mappingFile)

	if os.IsNotExist(err) {
		return nil, ErrMappingNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "laptimes: could not read mapping")
	}

	return data, nil
}

func (fs *FilesystemStore) SaveMapping(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(fs.mappingFile), 0755); err != nil {
		return err
	}

	return writeFile(fs.mappingFile, data)
}

func (fs *FilesystemStore) ListTrackMaps() ([]string, error) {
	files, err := ioutil.ReadDir(fs.mapsDir)

	if err != nil {
		return nil, errors.Wrap(err, "laptimes: could not list track maps")
	}

	var maps []string

	for _, file := range files {
		if !file.IsDir() && isTrackMapName(file.Name()) {
			maps = append(maps, file.Name())
		}
	}

	return sortedNames(maps), nil
}

func (fs *FilesystemStore) LoadTrackMap(name string) ([]byte, error) {
	name, err := sanitiseTrackMapName(name)

	if err != nil {
		return nil, err
	}

	data, err := ioutil.ReadFile(filepath.Join(fs.mapsDir, name))

	if os.IsNotExist(err) {
		return nil, ErrTrackMapNotFound
	}

	return data, err
}

func (fs *FilesystemStore) SaveTrackMap(name string, data []byte) error {
	name, err := sanitiseTrackMapName(name)

	if err != nil {
		return err
	}

	return writeFile(filepath.Join(fs.mapsDir, name), data)
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)

	if err != nil {
		return err
	}

	_, err = f.Write(data)

	return errorGroup(err, f.Close())
}
