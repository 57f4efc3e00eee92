// Package exporter writes census data and check results to disk.
//
// Three concerns live here:
//
// WriteCSV exports a MonitoringData as a CSV file, optionally keeping the
// comment block, cleaning cells and re-encoding the text for legacy
// spreadsheet tools.
//
// WriteReport turns the records of a check run into a styled XLSX
// checklist workbook for the field teams.
//
// AddClassification widens tree and seed data with taxonomic columns
// looked up from the species dictionary.
package exporter
