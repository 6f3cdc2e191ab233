package script

import "fmt"

// DefaultVersion is reported when a manifest carries no version.
const DefaultVersion = 1.0

// Manifest is the descriptive metadata a script supplies about itself.
type Manifest struct {
	Name        string
	Version     float64
	Authors     []string
	Description string
}

// withDefaults fills in absent fields.
func (m Manifest) withDefaults() Manifest {
	if m.Version <= 0 {
		m.Version = DefaultVersion
	}
	if m.Authors != nil {
		m.Authors = append([]string(nil), m.Authors...)
	}
	return m
}

// String returns "<name> v<version>".
func (m Manifest) String() string {
	return fmt.Sprintf("%s v%.1f", m.Name, m.withDefaults().Version)
}
