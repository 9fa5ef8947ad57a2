// Package journal persists work items, results, and error records in
// SQLite. It serves as the work source for the local backend and as a
// best-effort mirror when items come from Google Sheets.
package journal
