package bomimport

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ParseExcel reads the first sheet of a workbook into a raw grid source.
// The first row is taken as headers, everything below as data rows.
func ParseExcel(reader io.Reader) (Source, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return Source{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Source{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	src := Source{Kind: SourceRawGrid}
	if len(rows) == 0 {
		return src, nil
	}
	src.Columns = rows[0]
	for _, row := range rows[1:] {
		src.Rows = append(src.Rows, row)
	}
	return src, nil
}

// ParseDelimited reads a tab- or comma-separated export into a raw grid
// source. Legacy ERP exports arrive in Windows-1252, so bytes are decoded
// through that charmap before splitting. The first non-empty line is taken
// as headers; the delimiter is picked from it.
func ParseDelimited(reader io.Reader) (Source, error) {
	utf8Reader := transform.NewReader(reader, charmap.Windows1252.NewDecoder())

	src := Source{Kind: SourceRawGrid}
	scanner := bufio.NewScanner(utf8Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sep := ""
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		if sep == "" {
			sep = "\t"
			if !strings.Contains(line, "\t") {
				sep = ","
			}
			src.Columns = splitTrimmed(line, sep)
			continue
		}
		src.Rows = append(src.Rows, splitTrimmed(line, sep))
	}
	if err := scanner.Err(); err != nil {
		return Source{}, fmt.Errorf("read delimited file: %w", err)
	}
	return src, nil
}

func splitTrimmed(line, sep string) []string {
	fields := strings.Split(line, sep)
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), "\"")
	}
	return fields
}
