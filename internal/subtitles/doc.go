// Package subtitles parses and renders timed subtitle files.
//
// Two input grammars are supported: SubRip (SRT) and YouTube SBV. Both are
// parsed into the same ordered Entry sequence; output is always rendered as
// SRT. Time ranges are carried as opaque strings so translation never touches
// timing, and Decode normalizes byte-order marks and UTF-16 uploads before any
// grammar sees the text.
package subtitles
