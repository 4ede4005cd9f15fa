// Package tabstatus marks a context's title "(inactive)" when it receives a
// command fired elsewhere and clears the mark when it fires one itself.
package tabstatus
