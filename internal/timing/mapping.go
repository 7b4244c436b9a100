package timing

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"
)

// Mapping resolves drivers to their subcategory by JoinKey.
type Mapping map[string]Subcategory

// LoadMapping reads a ';' separated driver -> subcategory file. The first row is a header;
// the first column is the driver, the second the subcategory. The first row for a driver wins.
func LoadMapping(r io.Reader) (Mapping, error) {
	data, err := ioutil.ReadAll(utfbom.SkipOnly(r))

	if err != nil {
		return nil, errors.Wrap(err, "timing: read mapping")
	}

	records, err := newCSVReader(decodeText(data), ';').ReadAll()

	if err != nil {
		return nil, errors.Wrap(err, "timing: parse mapping")
	}

	if len(records) == 0 {
		return nil, errors.New("timing: mapping file is empty")
	}

	if len(records[0]) < 2 {
		return nil, errors.New("timing: mapping file needs a driver and a subcategory column")
	}

	mapping := make(Mapping)

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}

		key := JoinKey(record[0])

		if key == "" {
			continue
		}

		if _, ok := mapping[key]; ok {
			continue
		}

		mapping[key] = NewSubcategory(strings.TrimSpace(record[1]))
	}

	return mapping, nil
}

func (m Mapping) Lookup(driver string) Subcategory {
	if sub, ok := m[JoinKey(driver)]; ok {
		return sub
	}

	return NotRegistered
}

// ApplyMapping sets the subcategory of every lap from m. Drivers missing from m, or every
// driver when m is empty, are NotRegistered. Timing fields are left untouched.
func ApplyMapping(t Table, m Mapping) Table {
	if t == nil {
		return nil
	}

	out := make(Table, len(t))

	for i, lap := range t {
		lap.Subcategory = m.Lookup(lap.Driver)
		out[i] = lap
	}

	return out
}
