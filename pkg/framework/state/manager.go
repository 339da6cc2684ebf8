// Package state saves and restores processor state: parameter values plus an
// optional custom block.
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/justyntemme/timedrift/pkg/framework/param"
)

const (
	magic = "TDRIFT"

	// Version is the current state format version.
	Version uint32 = 1

	maxCustomSize = 1 << 20
)

// Manager handles plugin state saving and loading
type Manager struct {
	version    uint32
	registry   *param.Registry
	saveCustom func(w io.Writer) error
	loadCustom LoadFunc
}

// LoadFunc decodes a custom block without applying it. The returned commit
// function applies the decoded state and is only called once the whole
// state has parsed.
type LoadFunc func(r io.Reader) (commit func(), err error)

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  Version,
		registry: registry,
	}
}

// SetCustomState registers functions that save and load state beyond the
// parameters. The load function receives exactly the bytes the save
// function wrote, possibly none.
func (m *Manager) SetCustomState(save func(w io.Writer) error, load LoadFunc) {
	m.saveCustom = save
	m.loadCustom = load
}

type paramValue struct {
	id    uint32
	value float64
}

// Save writes the plugin state to a writer
func (m *Manager) Save(w io.Writer) error {
	var buf bytes.Buffer

	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, m.version)

	params := m.registry.All()
	binary.Write(&buf, binary.LittleEndian, int32(len(params)))
	for _, p := range params {
		binary.Write(&buf, binary.LittleEndian, p.ID)
		binary.Write(&buf, binary.LittleEndian, p.GetValue())
	}

	var custom bytes.Buffer
	if m.saveCustom != nil {
		if err := m.saveCustom(&custom); err != nil {
			return fmt.Errorf("state: saving custom block: %w", err)
		}
	}
	if custom.Len() > maxCustomSize {
		return fmt.Errorf("state: custom block of %d bytes: %w", custom.Len(), ErrCustomTooLarge)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(custom.Len()))
	buf.Write(custom.Bytes())

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return nil
}

// Load reads the plugin state from a reader. Nothing is applied unless the
// whole state parses.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("state: reading header: %w", err)
	}
	if string(header) != magic {
		return ErrInvalidFormat
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("state: reading version: %w", err)
	}
	if version > m.version {
		return fmt.Errorf("state version %d is newer than supported version %d: %w", version, m.version, ErrUnsupportedVersion)
	}

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return fmt.Errorf("state: reading parameter count: %w", err)
	}
	if paramCount < 0 || paramCount > 1<<16 {
		return fmt.Errorf("state: %d parameters: %w", paramCount, ErrInvalidFormat)
	}

	values := make([]paramValue, paramCount)
	for i := range values {
		if err := binary.Read(r, binary.LittleEndian, &values[i].id); err != nil {
			return fmt.Errorf("state: reading parameter %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &values[i].value); err != nil {
			return fmt.Errorf("state: reading parameter %d: %w", i, err)
		}
	}

	var customSize uint32
	if err := binary.Read(r, binary.LittleEndian, &customSize); err != nil {
		return fmt.Errorf("state: reading custom block size: %w", err)
	}
	if customSize > maxCustomSize {
		return fmt.Errorf("state: custom block of %d bytes: %w", customSize, ErrCustomTooLarge)
	}
	custom := make([]byte, customSize)
	if _, err := io.ReadFull(r, custom); err != nil {
		return fmt.Errorf("state: reading custom block: %w", err)
	}

	var commit func()
	if m.loadCustom != nil {
		var err error
		if commit, err = m.loadCustom(bytes.NewReader(custom)); err != nil {
			return fmt.Errorf("state: loading custom block: %w", err)
		}
	}

	for _, v := range values {
		// Unknown parameters are skipped for forward compatibility
		if p := m.registry.Get(v.id); p != nil {
			p.SetValue(v.value)
		}
	}
	if commit != nil {
		commit()
	}

	return nil
}
