// Package report writes a run result as an XLSX workbook for review
// outside the JSON pipeline.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/docrank"
)

const (
	sheetSections = "Sections"
	sheetPassages = "Passages"
	sheetRun      = "Run"
)

// WriteXLSX writes res to path as a workbook with one sheet per
// result list plus a run summary sheet.
func WriteXLSX(path string, res *docrank.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSections); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := writeSections(f, res.ExtractedSections); err != nil {
		return err
	}
	if err := writePassages(f, res.SubSectionAnalysis); err != nil {
		return err
	}
	if err := writeRun(f, res); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func writeSections(f *excelize.File, sections []docrank.SectionEntry) error {
	if err := setRow(f, sheetSections, 1, "Rank", "Document", "Section Title", "Page"); err != nil {
		return err
	}
	for i, sec := range sections {
		err := setRow(f, sheetSections, i+2, sec.ImportanceRank, sec.Document, sec.SectionTitle, sec.PageNumber)
		if err != nil {
			return err
		}
	}
	return nil
}

func writePassages(f *excelize.File, passages []docrank.SubsectionEntry) error {
	if _, err := f.NewSheet(sheetPassages); err != nil {
		return fmt.Errorf("report: add sheet: %w", err)
	}
	if err := setRow(f, sheetPassages, 1, "Rank", "Document", "Page", "Refined Text"); err != nil {
		return err
	}
	for i, p := range passages {
		err := setRow(f, sheetPassages, i+2, p.ImportanceRank, p.Document, p.PageNumber, p.RefinedText)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeRun(f *excelize.File, res *docrank.Result) error {
	if _, err := f.NewSheet(sheetRun); err != nil {
		return fmt.Errorf("report: add sheet: %w", err)
	}
	rows := [][]any{
		{"Persona", res.Metadata.Persona},
		{"Job To Be Done", res.Metadata.JobToBeDone},
		{"Processed At", res.Metadata.ProcessingTimestamp},
		{"Documents", len(res.Metadata.InputDocuments)},
	}
	for _, doc := range res.Metadata.InputDocuments {
		rows = append(rows, []any{"Document", doc, res.DocumentTitles[doc]})
	}
	for _, warn := range res.Warnings {
		rows = append(rows, []any{"Warning", warn})
	}
	for i, row := range rows {
		if err := setRow(f, sheetRun, i+1, row...); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("report: cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("report: set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
