// Package railway renders layout documents as SVG railway diagrams and as
// self-contained HTML pages with commit popups. Each ref gets a stable
// color derived from its name; segments without a confirming ref assertion
// are drawn grey and dashed.
package railway
