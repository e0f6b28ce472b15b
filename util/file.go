package util

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// ReadFileYAML decodes a YAML (or JSON) document into target. Fields absent
// from the document keep the values already set on target.
func ReadFileYAML(path string, target interface{}) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Errorf("file %s does not exist", path)
	}

	yamlData, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "invalid file: %s", path)
	}

	if err := yaml.Unmarshal(yamlData, target); err != nil {
		return errors.Wrapf(err, "problem parsing yaml/json from file %s", path)
	}

	return nil
}

func FileExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

// RemoveFiles removes every file in the list, collecting the paths that
// could not be removed. Missing files are not an error.
func RemoveFiles(paths []string) error {
	failed := []string{}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failed = append(failed, path)
		}
	}

	if len(failed) > 0 {
		return errors.Errorf("could not remove %d file(s): %v", len(failed), failed)
	}

	return nil
}
