package testhelpers

import (
	"os"
	"path/filepath"
	"runtime"
)

// LoadFixture reads a file from testhelpers/fixtures regardless of the
// calling package's directory.
func LoadFixture(name string) ([]byte, error) {
	_, file, _, _ := runtime.Caller(0)
	return os.ReadFile(filepath.Join(filepath.Dir(file), "fixtures", name))
}

// MustLoadFixture is LoadFixture for test bodies; it panics on a missing file.
func MustLoadFixture(name string) string {
	data, err := LoadFixture(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
