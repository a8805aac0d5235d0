package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// ChunkFunc receives chunks in input order. Returning an error stops the reader.
type ChunkFunc func(chunk Chunk) error

/*
ReadFile picks a reader from the file extension: .xlsx/.xlsm go to ReadXLSX,
everything else is treated as CSV.
*/
func ReadFile(fileName string, reader io.Reader, chunkSize int, onChunk ChunkFunc) (fields []string, e *xerr.Error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(reader, chunkSize, onChunk)
	default:
		return ReadCSV(reader, chunkSize, onChunk)
	}
}

/*
ReadCSV parses a CSV export with a header row and streams records in chunks
of chunkSize.

  - a UTF-8 BOM is dropped
  - input that isn't valid UTF-8 is decoded as Windows-1252 (Excel on Windows)
  - rows may be shorter or longer than the header
  - rows whose cells are all blank are skipped

It returns the header list. Only unreadable input is an error.
*/
func ReadCSV(reader io.Reader, chunkSize int, onChunk ChunkFunc) (fields []string, e *xerr.Error) {
	data, readErr := io.ReadAll(reader)
	if readErr != nil {
		e = xerr.NewError(readErr, "read CSV input", nil)
		return
	}

	var source io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		tl.Log(tl.Info1, palette.Purple, "CSV input is %s, decoding as %s", "not valid UTF-8", "Windows-1252")
		source = transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
	}

	csvReader := csv.NewReader(source)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	header, headerErr := csvReader.Read()
	if errors.Is(headerErr, io.EOF) {
		e = xerr.NewError(fmt.Errorf("no header row"), "read CSV header", nil)
		return
	}
	if headerErr != nil {
		e = xerr.NewError(headerErr, "read CSV header", nil)
		return
	}

	emitter := newChunkEmitter(header, chunkSize, onChunk)
	for {
		cells, recordErr := csvReader.Read()
		if errors.Is(recordErr, io.EOF) {
			break
		}
		if recordErr != nil {
			e = xerr.NewError(recordErr, "parse CSV record", nil)
			return emitter.fields, e
		}
		e = emitter.add(cells)
		if e != nil {
			return emitter.fields, e
		}
	}

	e = emitter.flush()
	tl.Log(tl.Info1, palette.Green, "Read %s CSV records with %s columns", emitter.total, len(emitter.fields))
	return emitter.fields, e
}

/*
ReadXLSX reads the first worksheet of a workbook. The first row is the header.
*/
func ReadXLSX(reader io.Reader, chunkSize int, onChunk ChunkFunc) (fields []string, e *xerr.Error) {
	workbook, openErr := excelize.OpenReader(reader)
	if openErr != nil {
		e = xerr.NewError(openErr, "open XLSX workbook", nil)
		return
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		e = xerr.NewError(fmt.Errorf("workbook has no sheets"), "read XLSX workbook", nil)
		return
	}

	rows, rowsErr := workbook.GetRows(sheets[0])
	if rowsErr != nil {
		e = xerr.NewError(rowsErr, "read XLSX rows", sheets[0])
		return
	}
	if len(rows) == 0 {
		e = xerr.NewError(fmt.Errorf("no header row"), "read XLSX header", sheets[0])
		return
	}

	emitter := newChunkEmitter(rows[0], chunkSize, onChunk)
	for _, cells := range rows[1:] {
		e = emitter.add(cells)
		if e != nil {
			return emitter.fields, e
		}
	}

	e = emitter.flush()
	tl.Log(tl.Info1, palette.Green, "Read %s XLSX records from sheet '%s'", emitter.total, sheets[0])
	return emitter.fields, e
}

// chunkEmitter turns cell slices into RawRecords and hands them over chunkSize at a time.
type chunkEmitter struct {
	fields    []string
	chunkSize int
	onChunk   ChunkFunc
	buffer    []RawRecord
	total     int
}

func newChunkEmitter(header []string, chunkSize int, onChunk ChunkFunc) *chunkEmitter {
	if chunkSize <= 0 {
		chunkSize = DefaultValueConfig().ChunkSize
	}
	return &chunkEmitter{
		fields:    uniqueHeaders(header),
		chunkSize: chunkSize,
		onChunk:   onChunk,
	}
}

func (emitter *chunkEmitter) add(cells []string) (e *xerr.Error) {
	if isBlankRow(cells) {
		return nil
	}

	record := make(RawRecord, len(emitter.fields))
	for index, field := range emitter.fields {
		if index >= len(cells) {
			break
		}
		record[field] = cells[index]
	}
	emitter.buffer = append(emitter.buffer, record)
	emitter.total++

	if len(emitter.buffer) >= emitter.chunkSize {
		return emitter.flush()
	}
	return nil
}

func (emitter *chunkEmitter) flush() (e *xerr.Error) {
	if len(emitter.buffer) == 0 {
		return nil
	}
	chunk := Chunk{Data: emitter.buffer, Fields: emitter.fields}
	emitter.buffer = nil

	callbackErr := emitter.onChunk(chunk)
	if callbackErr != nil {
		e = xerr.NewError(callbackErr, "handle record chunk", len(chunk.Data))
	}
	return e
}

/*
uniqueHeaders drops a leading BOM, names blank headers "Column N" and
suffixes repeated headers ("Amount", "Amount_1") so no cell is overwritten.
A suffixed name that is already taken moves on to the next number.
*/
func uniqueHeaders(header []string) []string {
	fields := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int, len(header))
	for index, name := range header {
		if index == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Column %d", index+1)
		}
		unique := name
		for used[unique] {
			suffix[name]++
			unique = fmt.Sprintf("%s_%d", name, suffix[name])
		}
		used[unique] = true
		fields[index] = unique
	}
	return fields
}

func isBlankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
