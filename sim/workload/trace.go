package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cachesim/cachemrc/sim"
)

// CSV column headers of the default trace format.
var traceColumns = []string{"timestamp", "command", "key", "size", "ttl"}

// Unmapped marks a FieldMapping column that is absent from the trace.
const Unmapped = -1

// FieldMapping selects trace columns by zero-based index.
// Unmapped fields take their default: 1 for Size, 0 otherwise.
type FieldMapping struct {
	Timestamp int `yaml:"timestamp"`
	Command   int `yaml:"command"`
	Key       int `yaml:"key"`
	Size      int `yaml:"size"`
	TTL       int `yaml:"ttl"`
}

// NewFieldMapping returns a mapping with every field unmapped.
func NewFieldMapping() FieldMapping {
	return FieldMapping{Timestamp: Unmapped, Command: Unmapped, Key: Unmapped, Size: Unmapped, TTL: Unmapped}
}

// IsZero reports whether no field is mapped.
func (m *FieldMapping) IsZero() bool {
	return m.Timestamp == Unmapped && m.Command == Unmapped && m.Key == Unmapped &&
		m.Size == Unmapped && m.TTL == Unmapped
}

// Validate rejects indices below Unmapped and a non-empty mapping that leaves
// the key unmapped, which would collapse the trace onto a single key.
func (m *FieldMapping) Validate() error {
	for _, name := range traceColumns {
		if idx := *m.targets()[name]; idx < Unmapped {
			return fmt.Errorf("field %s: column index must be >= 0 or %d (unmapped), got %d", name, Unmapped, idx)
		}
	}
	if m.Key == Unmapped && !m.IsZero() {
		return fmt.Errorf("custom trace fields %+v must map the key column", *m)
	}
	return nil
}

// targets maps each default column name to its FieldMapping slot.
func (m *FieldMapping) targets() map[string]*int {
	return map[string]*int{
		"timestamp": &m.Timestamp,
		"command":   &m.Command,
		"key":       &m.Key,
		"size":      &m.Size,
		"ttl":       &m.TTL,
	}
}

// UnmarshalYAML decodes a partial mapping such as {key: 2, size: 3};
// omitted fields stay unmapped and unknown field names are errors.
func (m *FieldMapping) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]int
	if err := value.Decode(&raw); err != nil {
		return err
	}
	mapped := NewFieldMapping()
	targets := mapped.targets()
	for name, idx := range raw {
		dst, ok := targets[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown trace field %q; valid: %v", name, traceColumns)
		}
		*dst = idx
	}
	*m = mapped
	return nil
}

// mappingFromHeader builds a FieldMapping from header names.
// Matching ignores case and surrounding spaces; the key column is required.
func mappingFromHeader(header []string) (FieldMapping, error) {
	m := NewFieldMapping()
	targets := m.targets()
	for i, name := range header {
		if dst, ok := targets[strings.ToLower(strings.TrimSpace(name))]; ok && *dst == Unmapped {
			*dst = i
		}
	}
	if m.Key == Unmapped {
		return m, fmt.Errorf("trace header %v has no %q column", header, "key")
	}
	return m, nil
}

// LoadAccessTrace reads a CSV trace file. See ReadAccessTrace.
func LoadAccessTrace(path string, mapping *FieldMapping) ([]sim.AccessRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer func() { _ = file.Close() }()

	records, err := ReadAccessTrace(file, mapping)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadAccessTrace parses a CSV trace with a header row, returning records in
// file order.
//
// With a nil mapping, columns are found by header name (timestamp, command,
// key, size, ttl). Otherwise mapping selects columns by index and the header
// row is skipped unread. Unparseable fields fall back to their default with a
// warning; a key that is not an unsigned integer is hashed instead.
func ReadAccessTrace(r io.Reader, mapping *FieldMapping) ([]sim.AccessRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var m FieldMapping
	if mapping == nil {
		m, err = mappingFromHeader(header)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("Parsing trace with header columns: %+v", m)
	} else {
		if err := mapping.Validate(); err != nil {
			return nil, err
		}
		m = *mapping
		logrus.Infof("Parsing trace with custom fields: %+v", m)
	}
	maxIdx := max(m.Timestamp, m.Command, m.Key, m.Size, m.TTL)

	var records []sim.AccessRecord
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", rowNum, err)
		}
		if len(row) <= maxIdx {
			return nil, fmt.Errorf("CSV row %d has %d columns, mapping needs %d", rowNum, len(row), maxIdx+1)
		}
		records = append(records, parseAccessRecord(row, &m, rowNum))
	}
	return records, nil
}

func parseAccessRecord(row []string, m *FieldMapping, rowNum int) sim.AccessRecord {
	return sim.AccessRecord{
		Timestamp: parseField(row, m.Timestamp, 64, 0, rowNum),
		Command:   uint8(parseField(row, m.Command, 8, 0, rowNum)),
		Key:       parseKey(row, m.Key),
		Size:      uint32(parseField(row, m.Size, 32, 1, rowNum)),
		TTL:       uint32(parseField(row, m.TTL, 32, 0, rowNum)),
	}
}

func parseField(row []string, idx, bitSize int, def uint64, rowNum int) uint64 {
	if idx == Unmapped {
		return def
	}
	field := strings.TrimSpace(row[idx])
	v, err := strconv.ParseUint(field, 10, bitSize)
	if err != nil {
		logrus.Warnf("row %d: failed to parse column %d %q, using %d: %v", rowNum, idx, field, def, err)
		return def
	}
	return v
}

// parseKey reads a numeric key, hashing anything else (object IDs, URLs)
// to a stable 64-bit key.
func parseKey(row []string, idx int) sim.Key {
	if idx == Unmapped {
		return 0
	}
	field := strings.TrimSpace(row[idx])
	if v, err := strconv.ParseUint(field, 10, 64); err == nil {
		return v
	}
	return xxhash.Sum64String(field)
}

// WriteAccessTrace writes records as a CSV trace with the default header.
func WriteAccessTrace(w io.Writer, records []sim.AccessRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(traceColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range records {
		row := []string{
			strconv.FormatUint(r.Timestamp, 10),
			strconv.FormatUint(uint64(r.Command), 10),
			strconv.FormatUint(r.Key, 10),
			strconv.FormatUint(uint64(r.Size), 10),
			strconv.FormatUint(uint64(r.TTL), 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportAccessTrace writes records to a CSV file at path.
func ExportAccessTrace(path string, records []sim.AccessRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := WriteAccessTrace(file, records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
