package settings

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"
)

// ErrUnencodable is returned by FileBackend.Save when a key or value holds
// bytes that an XML document cannot carry unchanged.
var ErrUnencodable = errors.New("settings: value not representable in XML")

const propertiesDoctype = `<!DOCTYPE properties SYSTEM "http://java.sun.com/dtd/properties.dtd">`

// properties is the XML document layout: a flat list of keyed entries.
type properties struct {
	XMLName xml.Name        `xml:"properties"`
	Comment string          `xml:"comment"`
	Entries []propertyEntry `xml:"entry"`
}

type propertyEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// FileBackend persists values in <root>/<identity>/settings.xml.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend for id under root.
func NewFileBackend(root string, id Identity) *FileBackend {
	return &FileBackend{dir: Dir(root, id)}
}

// Load reads the settings document. A missing document yields an empty map.
func (b *FileBackend) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(b.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	var doc properties
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", b.Path(), err)
	}

	values := make(map[string]string, len(doc.Entries))
	for _, e := range doc.Entries {
		values[e.Key] = e.Value
	}
	return values, nil
}

// Save writes the settings document atomically (temp file, then rename).
func (b *FileBackend) Save(ctx context.Context, values map[string]string) error {
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return err
	}

	data, err := encodeProperties(values)
	if err != nil {
		return err
	}

	path := b.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Remove deletes the settings document if it exists.
func (b *FileBackend) Remove(ctx context.Context) error {
	err := os.Remove(b.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Location returns the document path.
func (b *FileBackend) Location() string { return b.Path() }

// Dir returns the identity's storage directory.
func (b *FileBackend) Dir() string { return b.dir }

// Path returns the full path to the settings document.
func (b *FileBackend) Path() string {
	return filepath.Join(b.dir, FileName)
}

// encodeProperties renders values with keys sorted so output is stable.
func encodeProperties(values map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := properties{Entries: make([]propertyEntry, 0, len(keys))}
	for _, k := range keys {
		if !xmlSafe(k) {
			return nil, fmt.Errorf("%w: key %q", ErrUnencodable, k)
		}
		if !xmlSafe(values[k]) {
			return nil, fmt.Errorf("%w: value of %q", ErrUnencodable, k)
		}
		doc.Entries = append(doc.Entries, propertyEntry{Key: k, Value: values[k]})
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n")
	buf.WriteString(propertiesDoctype + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// xmlSafe reports whether s is valid UTF-8 made only of XML 1.0 characters.
func xmlSafe(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == 0x9 || r == 0xA || r == 0xD:
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}
