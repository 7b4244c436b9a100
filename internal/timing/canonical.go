package timing

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CanonicalHeader is the header written by WriteCSV. Files in this shape ingest as LayoutA.
var CanonicalHeader = []string{
	"Local",
	"Evento",
	"CATEGORIA",
	"Piloto",
	"Horário",
	"Volta",
	"Tempo Total da Volta",
	"Setor 1",
	"Setor 2",
	"Setor 3",
	"TOP SPEED",
}

// WriteCSV writes t as a ';' separated UTF-8 file with a byte order mark, durations
// rendered as "M:SS.mmm".
func WriteCSV(w io.Writer, t Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return errors.Wrap(err, "timing: write bom")
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(CanonicalHeader); err != nil {
		return errors.Wrap(err, "timing: write header")
	}

	for _, lap := range t {
		lapNumber := ""

		if lap.LapNumber > 0 {
			lapNumber = strconv.Itoa(lap.LapNumber)
		}

		err := cw.Write([]string{
			lap.Category,
			lap.Event,
			lap.Subcategory.String(),
			lap.Driver,
			lap.Timestamp,
			lapNumber,
			FormatDuration(lap.LapTime),
			FormatDuration(lap.Sector1),
			FormatDuration(lap.Sector2),
			FormatDuration(lap.Sector3),
			lap.TopSpeed.String(),
		})

		if err != nil {
			return errors.Wrap(err, "timing: write lap")
		}
	}

	cw.Flush()

	return cw.Error()
}
