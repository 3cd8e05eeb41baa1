package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"conflux/pkg/util/maps"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	config     = make(map[string]interface{})
	configFile string
	mutex      = &sync.RWMutex{}
)

// SetConfigFile sets the config file path to be read
func SetConfigFile(path string) {
	mutex.Lock()
	defer mutex.Unlock()
	configFile = path
}

// ReadInConfig reads the config file previously set.
// Files with a .yaml or .yml extension are decoded as YAML, anything else as JSON.
// If no config file was set, does nothing
func ReadInConfig() error {
	mutex.RLock()
	path := configFile
	mutex.RUnlock()
	if path == "" {
		//No config file set, just return
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open file %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAMLConfig(f)
	}
	return ReadConfig(f)
}

// ReadConfig read JSON config from the given reader
func ReadConfig(in io.Reader) error {
	c := make(map[string]interface{})
	if err := json.NewDecoder(in).Decode(&c); err != nil {
		return errors.Wrap(err, "cannot decode config")
	}
	set(c)
	return nil
}

// ReadYAMLConfig read YAML config from the given reader
func ReadYAMLConfig(in io.Reader) error {
	c := make(map[string]interface{})
	if err := yaml.NewDecoder(in).Decode(&c); err != nil && err != io.EOF {
		return errors.Wrap(err, "cannot decode yaml config")
	}
	set(c)
	return nil
}

// Reset drops the loaded configuration.
func Reset() {
	set(make(map[string]interface{}))
}

func set(c map[string]interface{}) {
	mutex.Lock()
	defer mutex.Unlock()
	config = c
}

// Get returns the value for the given dotted key
func Get(key string) interface{} {
	mutex.RLock()
	defer mutex.RUnlock()
	return maps.Get(config, key)
}

// Unmarshal parses the config data for the given key and stores the result in the value pointed to by v.
// Env variables declared with the `env` tag take precedence over the config file.
func Unmarshal(key string, v interface{}) error {
	in := Get(key)
	//Decode from config data
	if in != nil {
		if err := maps.Decode(in, v); err != nil {
			return errors.Wrapf(err, "cannot decode config for key %s", key)
		}
	}
	// Parse env variables
	if err := env.Parse(v); err != nil {
		return errors.Wrap(err, "cannot parse env")
	}
	return nil
}
