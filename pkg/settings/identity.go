package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
)

// ProductName names the directory under the temp root that holds all scripts.
const ProductName = "scriptd"

// FileName is the name of the settings document inside a script directory.
const FileName = "settings.xml"

// ErrInvalidIdentity is returned for identities that cannot name a directory.
var ErrInvalidIdentity = errors.New("settings: invalid identity")

// Identity uniquely names a script for storage purposes, usually its
// fully-qualified type name in dotted form (e.g. "com.acme.fisher.Script").
type Identity string

// Validate reports whether the identity is usable as a single path element.
func (id Identity) Validate() error {
	s := string(id)
	if s == "" || s == "." || s == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidIdentity, s)
	}
	return nil
}

// IdentityFor derives an identity from the dynamic type of v: the package
// path and type name joined with dots. Pointer types are dereferenced.
func IdentityFor(v interface{}) Identity {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	name := t.Name()
	if pkg := t.PkgPath(); pkg != "" {
		name = pkg + "." + name
	}
	return Identity(strings.ReplaceAll(name, "/", "."))
}

// DefaultRoot returns <os temp dir>/scriptd.
func DefaultRoot() string {
	return filepath.Join(os.TempDir(), ProductName)
}

// Dir returns the storage directory of an identity under root.
func Dir(root string, id Identity) string {
	return filepath.Join(root, string(id))
}

// Path returns the settings document path of an identity under root.
func Path(root string, id Identity) string {
	return filepath.Join(Dir(root, id), FileName)
}
