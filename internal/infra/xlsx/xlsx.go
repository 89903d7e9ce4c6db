// Package xlsx reads the worksheet grid out of an .xlsx workbook. It
// implements just enough of the OOXML spreadsheet format (shared strings,
// sheet ordering, inline/shared cell values) to hand the Excel processor a
// [][]string per sheet; it does not handle formulas, styles, or merged
// cells.
package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Sheet is one worksheet's name and row/cell grid, in column order with
// blank trailing cells omitted per row.
type Sheet struct {
	Name string
	Rows [][]string
}

type workbookXML struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID string `xml:"sheetId,attr"`
		RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Ref  string `xml:"r,attr"`
			Type string `xml:"t,attr"`
			V    string `xml:"v"`
			Is   struct {
				Text string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// Read parses an in-memory .xlsx file into its worksheets, in workbook
// sheet order.
func Read(data []byte) ([]Sheet, error) {
	zr, err := zip.NewReader(strings.NewReader(string(data)), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("xlsx: not a valid zip archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	sharedStrings, err := readSharedStrings(files)
	if err != nil {
		return nil, err
	}

	wb, err := readWorkbook(files)
	if err != nil {
		return nil, err
	}

	rels, err := readRelationships(files)
	if err != nil {
		return nil, err
	}

	sheets := make([]Sheet, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		target, ok := rels[s.RID]
		if !ok {
			continue
		}
		path := "xl/" + strings.TrimPrefix(target, "/xl/")
		f, ok := files[path]
		if !ok {
			continue
		}
		rows, err := readWorksheet(f, sharedStrings)
		if err != nil {
			return nil, fmt.Errorf("xlsx: read sheet %q: %w", s.Name, err)
		}
		sheets = append(sheets, Sheet{Name: s.Name, Rows: rows})
	}
	return sheets, nil
}

func readSharedStrings(files map[string]*zip.File) ([]string, error) {
	f, ok := files["xl/sharedStrings.xml"]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var parsed sharedStringsXML
	if err := xml.NewDecoder(rc).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("xlsx: parse shared strings: %w", err)
	}

	out := make([]string, len(parsed.Items))
	for i, item := range parsed.Items {
		if item.Text != "" {
			out[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, r := range item.Runs {
			b.WriteString(r.Text)
		}
		out[i] = b.String()
	}
	return out, nil
}

func readWorkbook(files map[string]*zip.File) (*workbookXML, error) {
	f, ok := files["xl/workbook.xml"]
	if !ok {
		return nil, fmt.Errorf("xlsx: missing xl/workbook.xml")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var wb workbookXML
	if err := xml.NewDecoder(rc).Decode(&wb); err != nil {
		return nil, fmt.Errorf("xlsx: parse workbook.xml: %w", err)
	}
	return &wb, nil
}

func readRelationships(files map[string]*zip.File) (map[string]string, error) {
	f, ok := files["xl/_rels/workbook.xml.rels"]
	if !ok {
		return nil, fmt.Errorf("xlsx: missing workbook relationships")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rels relationshipsXML
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return nil, fmt.Errorf("xlsx: parse workbook relationships: %w", err)
	}

	out := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		out[r.ID] = r.Target
	}
	return out, nil
}

func readWorksheet(f *zip.File, sharedStrings []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parse worksheet xml: %w", err)
	}

	rows := make([][]string, 0, len(ws.Rows))
	for _, row := range ws.Rows {
		type cell struct {
			col   int
			value string
		}
		cells := make([]cell, 0, len(row.Cells))
		maxCol := 0
		for _, c := range row.Cells {
			col := columnIndex(c.Ref)
			if col > maxCol {
				maxCol = col
			}
			value := c.V
			switch c.Type {
			case "s":
				idx, err := strconv.Atoi(c.V)
				if err == nil && idx >= 0 && idx < len(sharedStrings) {
					value = sharedStrings[idx]
				}
			case "inlineStr", "str":
				if c.Is.Text != "" {
					value = c.Is.Text
				}
			}
			cells = append(cells, cell{col: col, value: value})
		}

		sort.Slice(cells, func(i, j int) bool { return cells[i].col < cells[j].col })
		out := make([]string, maxCol+1)
		for _, c := range cells {
			out[c.col] = c.value
		}
		rows = append(rows, out)
	}
	return rows, nil
}

// columnIndex converts a cell reference like "C4" into a zero-based column
// index (A=0, B=1, ..., AA=26).
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A'+1)
	}
	return col - 1
}
