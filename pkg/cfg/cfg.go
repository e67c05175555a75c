// Package cfg loads configuration structs from a chain of sources: flag
// defaults first, then YAML documents, each source overriding the fields it
// sets.
package cfg

import (
	"bytes"
	"io"
	"os"

	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Source is a generic configuration source. This function may do whatever is
// required to obtain the configuration. It is passed a pointer to the
// destination, which will be something compatible to `yaml.Unmarshal`. The
// obtained configuration may be written to this object, it may also contain
// data from previous sources.
type Source func(interface{}) error

// Validator is implemented by configuration structs that can check
// themselves once every source has been applied.
type Validator interface {
	Validate() error
}

// Unmarshal merges the values of the various configuration sources and sets them on
// `dst`. If dst implements Validator it is validated afterwards.
func Unmarshal(dst interface{}, sources ...Source) error {
	if len(sources) == 0 {
		panic("No sources supplied to cfg.Unmarshal(). This is most likely a programming issue and should never happen. Check the code!")
	}
	for _, source := range sources {
		if err := source(dst); err != nil {
			return errors.Wrap(err, "sourcing")
		}
	}
	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}
	}
	return nil
}

// Defaults sets every field of dst to the default of the flag registered for
// it. dst must implement flagext.Registerer.
func Defaults() Source {
	return func(dst interface{}) error {
		r, ok := dst.(flagext.Registerer)
		if !ok {
			return errors.Errorf("%T does not register flags", dst)
		}
		flagext.DefaultValues(r)
		return nil
	}
}

// YAML decodes buf into dst. Unknown fields are an error. An empty document
// leaves dst unchanged.
func YAML(buf []byte) Source {
	return func(dst interface{}) error {
		dec := yaml.NewDecoder(bytes.NewReader(buf))
		dec.KnownFields(true)
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "decoding YAML")
		}
		return nil
	}
}

// YAMLFile is like YAML but reads the document from path. An empty path is a
// no-op, so the source can be wired to an optional flag.
func YAMLFile(path string) Source {
	return func(dst interface{}) error {
		if path == "" {
			return nil
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading config file")
		}
		return errors.Wrapf(YAML(buf)(dst), "loading %s", path)
	}
}
