package bulk

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TemplateFileName is the default name for WriteUserTemplate output.
const TemplateFileName = "user_upload_template.xlsx"

const templateSheet = "Users Template"

// exampleUser is the sample row placed under the template header.
var exampleUser = []any{
	"John", "Doe", "john@example.com", "SecurePass123!", "student",
	"1990-01-15", "active", "Engineering", "",
}

func newUserTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), templateSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]any, len(UserColumns))
	for i, c := range UserColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	row := exampleUser
	if err := f.SetSheetRow(templateSheet, "A2", &row); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(UserColumns), 1)
		_ = f.SetCellStyle(templateSheet, "A1", last, bold)
	}
	return f, nil
}

// WriteUserTemplate writes an .xlsx bulk upload template to path.
func WriteUserTemplate(path string) error {
	f, err := newUserTemplate()
	if err != nil {
		return fmt.Errorf("failed to build template: %w", err)
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// WriteUserTemplateTo writes the template workbook to w.
func WriteUserTemplateTo(w io.Writer) error {
	f, err := newUserTemplate()
	if err != nil {
		return fmt.Errorf("failed to build template: %w", err)
	}
	defer f.Close()
	return f.Write(w)
}
