package laptimes

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	StoreTypeFilesystem = "filesystem"
	StoreTypeBolt       = "bolt"
)

type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	HTTP     HTTPConfig    `yaml:"http"`
	LogLevel string        `yaml:"log_level"`
}

type StorageConfig struct {
	Type        string `yaml:"type"`
	SessionsDir string `yaml:"sessions_dir"`
	MapsDir     string `yaml:"maps_dir"`
	MappingFile string `yaml:"mapping_file"`
	BoltPath    string `yaml:"bolt_path"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

func ConfigDefault() *Config {
	return &Config{
		Storage: StorageConfig{
			Type:        StoreTypeFilesystem,
			SessionsDir: "sessions",
			MapsDir:     "maps",
			MappingFile: "mapping.csv",
			BoltPath:    "laptimes.db",
		},
		HTTP: HTTPConfig{
			Listen: "0.0.0.0:8772",
		},
		LogLevel: "info",
	}
}

// ReadConfig reads a YAML config over the defaults. A missing file is not an error.
func ReadConfig(path string) (*Config, error) {
	conf := ConfigDefault()

	f, err := os.Open(path)

	if os.IsNotExist(err) {
		logrus.Infof("No config found at %s, using defaults", path)
		return conf, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "laptimes: could not open config %s", path)
	}

	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(conf); err != nil {
		return nil, errors.Wrapf(err, "laptimes: could not parse config %s", path)
	}

	return conf, nil
}

func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)

	if err != nil {
		return logrus.InfoLevel
	}

	return level
}

// NewStore opens the configured store. Bolt stores must be closed by the caller.
func (c *Config) NewStore() (Store, error) {
	switch c.Storage.Type {
	case StoreTypeFilesystem, "":
		return NewFilesystemStore(c.Storage.SessionsDir, c.Storage.MapsDir, c.Storage.MappingFile)
	case StoreTypeBolt:
		return NewBoltStore(c.Storage.BoltPath)
	default:
		return nil, fmt.Errorf("laptimes: unknown store type: %s", c.Storage.Type)
	}
}
