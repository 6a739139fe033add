package storage

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const fileFormatVersion = "1.0"

// FileStorage keeps values in ~/.config/inkpress/<namespace>.yaml. The file is
// re-read on every access so that other desk processes see the same state.
type FileStorage struct {
	lock sync.Mutex
	path string
}

type storageFile struct {
	Version   string            `yaml:"version"`
	Timestamp time.Time         `yaml:"timestamp"`
	Values    map[string]string `yaml:"values"`
}

func newStorageFile() storageFile {
	return storageFile{
		Version:   fileFormatVersion,
		Timestamp: time.Now().UTC(),
		Values:    make(map[string]string),
	}
}

func NewFileStorage(dir string, namespace string) (*FileStorage, error) {
	if len(dir) == 0 {
		defaultDir, err := DefaultDirectory()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}

	if len(namespace) == 0 {
		namespace = "default"
	}

	if strings.ContainsAny(namespace, `/\`) || strings.HasPrefix(namespace, ".") {
		return nil, fmt.Errorf("invalid storage namespace: %s", namespace)
	}

	// Only the owner may enter the directory
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileStorage{
		path: filepath.Join(dir, fmt.Sprintf("%s.yaml", namespace)),
	}, nil
}

// DefaultDirectory returns ~/.config/inkpress for the current user.
func DefaultDirectory() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, ".config", "inkpress"), nil
}

func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	data, err := f.load()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path": f.path,
			"key":  key,
		}).WithError(err).Warnln("Failed to read storage file")
		return "", false
	}

	value, ok := data.Values[key]
	return value, ok
}

func (f *FileStorage) Set(key string, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"path": f.path,
		"key":  key,
	}).Debugln("Storing value")

	data, err := f.load()
	if err != nil {
		// An unreadable file is replaced rather than blocking the write
		data = newStorageFile()
	}

	data.Values[key] = value
	return f.commit(data)
}

func (f *FileStorage) Remove(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"path": f.path,
		"key":  key,
	}).Debugln("Removing value")

	data, err := f.load()
	if err != nil {
		data = newStorageFile()
	}

	if _, ok := data.Values[key]; !ok {
		return nil
	}

	delete(data.Values, key)
	return f.commit(data)
}

func (f *FileStorage) load() (storageFile, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return newStorageFile(), nil
	} else if err != nil {
		return storageFile{}, err
	}

	if len(raw) == 0 {
		return newStorageFile(), nil
	}

	var data storageFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return storageFile{}, fmt.Errorf("failed to parse storage file %s: %w", f.path, err)
	}

	if data.Values == nil {
		data.Values = make(map[string]string)
	}

	return data, nil
}

func (f *FileStorage) commit(data storageFile) error {
	data.Version = fileFormatVersion
	data.Timestamp = time.Now().UTC()

	// Only allow read/write access to the owner
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open storage file: %w", err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}

	return encoder.Close()
}
