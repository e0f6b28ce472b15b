package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteJSON writes data as indented JSON to fn. The document is written to a
// temporary file in the same directory first so readers never observe a
// partial report.
func WriteJSON(fn string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "problem encoding data")
	}

	tmp, err := os.CreateTemp(filepath.Dir(fn), "."+filepath.Base(fn)+".*")
	if err != nil {
		return errors.Wrapf(err, "problem creating temporary file for %s", fn)
	}
	defer os.Remove(tmp.Name())

	if err = tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return errors.WithStack(err)
	}
	if _, err = tmp.Write(append(out, '\n')); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "problem writing %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), fn), "problem moving report into place at %s", fn)
}

// FprintJSON writes data as indented JSON followed by a newline.
func FprintJSON(w io.Writer, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "problem encoding data")
	}

	_, err = fmt.Fprintln(w, string(out))
	return errors.WithStack(err)
}
