package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV dumps the system and per-core history oldest-first, one sample per
// row: sample index, average usage (0..1), temperature in Celsius, then one
// usage column per logical core. Core rows are shorter than the system ring;
// samples older than the core history window leave those columns empty.
func (s *Store) WriteCSV(w io.Writer) error {
	sys := s.System.Ordered()
	cores := s.Cores.Ordered()

	cw := csv.NewWriter(w)
	header := []string{"sample", "avg_usage", "temp_c"}
	for i := range cores {
		header = append(header, fmt.Sprintf("core%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	n := len(sys[0])
	coreN := 0
	if len(cores) > 0 {
		coreN = len(cores[0])
	}
	row := make([]string, len(header))
	for k := 0; k < n; k++ {
		row[0] = strconv.Itoa(k)
		row[1] = strconv.FormatFloat(sys[0][k], 'f', 4, 64)
		row[2] = strconv.FormatFloat(sys[1][k], 'f', 1, 64)
		// Align the tail of the core history with the tail of the
		// system history.
		ck := k - (n - coreN)
		for i := range cores {
			if ck >= 0 && ck < len(cores[i]) {
				row[3+i] = strconv.FormatFloat(cores[i][ck], 'f', 4, 64)
			} else {
				row[3+i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
