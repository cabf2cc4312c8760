package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/paperscan/paperscan/pkg/record"
)

const xlsxSheet = "Extraction"

// XLSXWriter writes records to an XLSX workbook with one sheet.
type XLSXWriter struct {
	dst  io.Writer
	file *excelize.File
	row  int
}

// NewXLSXWriter creates an XLSX writer targeting dst on Flush.
func NewXLSXWriter(dst io.Writer) *XLSXWriter {
	return &XLSXWriter{dst: dst}
}

func (w *XLSXWriter) init() error {
	if w.file != nil {
		return nil
	}
	f := excelize.NewFile()
	if _, err := f.NewSheet(xlsxSheet); err != nil {
		return err
	}
	if index, err := f.GetSheetIndex(xlsxSheet); err == nil {
		f.SetActiveSheet(index)
	}
	_ = f.DeleteSheet("Sheet1")

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return err
		}
	}
	w.file = f
	w.row = 2
	return nil
}

// Write outputs a single record as one worksheet row.
func (w *XLSXWriter) Write(rec record.Record) error {
	if err := w.init(); err != nil {
		return fmt.Errorf("failed to initialize workbook: %w", err)
	}

	for col, cell := range rowCells(rec) {
		name, _ := excelize.CoordinatesToCellName(col+1, w.row)
		if err := w.file.SetCellValue(xlsxSheet, name, cell); err != nil {
			return fmt.Errorf("failed to write record %s: %w", rec.FieldName, err)
		}
	}
	w.row++
	return nil
}

// WriteAll outputs multiple records.
func (w *XLSXWriter) WriteAll(recs []record.Record) error {
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the workbook to the destination.
func (w *XLSXWriter) Flush() error {
	if err := w.init(); err != nil {
		return err
	}
	if err := w.file.Write(w.dst); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return w.file.Close()
}
