// Package bulk reads spreadsheet files for bulk administrative operations.
//
// ParseFile accepts .csv, .xlsx and legacy .xls files up to MaxFileSize and
// returns the first worksheet as header-keyed rows. Two pipelines build on it:
//
//   - Enroller.EnrollFromFile enrolls every user whose address appears in the
//     file's email column into one course.
//   - Uploader.Upload validates a user sheet row by row, sends it to the bulk
//     upload endpoint as CSV and enrolls the created accounts in the courses
//     named on their rows.
//
// Structural problems (unsupported format, empty file, missing email column)
// are reported as *FileError before any request is made. Row problems are
// reported together as ValidationErrors, numbered as spreadsheet rows with
// the header on row 1.
//
// WriteUserTemplate produces an .xlsx template with the expected columns.
package bulk
