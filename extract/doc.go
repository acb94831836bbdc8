// Package extract turns judgment files on disk into documents.
//
// PDFs are converted with poppler's pdftotext in layout mode; plain text
// files are read as-is. A Loader walks a directory tree and extracts every
// matching file on a worker pool.
package extract
