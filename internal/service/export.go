package service

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
)

// utf8BOM prefixes exports so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// peopleCSVHeader is the fixed column order of a people export.
var peopleCSVHeader = []string{"name", "email", "phone", "lifecycle", "notes", "created_at"}

// BuildPeopleCSV renders contacts as RFC 4180 CSV: CRLF line endings,
// fields quoted only when they contain quotes, commas or newlines,
// internal quotes doubled. The encoding/csv writer handles the quoting
// rules; UseCRLF covers the line endings.
func BuildPeopleCSV(people []domain.Person) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(peopleCSVHeader); err != nil {
		return nil, err
	}
	for _, p := range people {
		record := []string{
			p.Name,
			p.Email,
			p.Phone,
			p.Lifecycle,
			p.Notes,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
