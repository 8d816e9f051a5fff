// Package language normalizes the language codes that appear in configuration,
// CLI flags, and HTTP requests, and renders the human-readable names used in
// translation prompts and output filenames.
//
// Codes are parsed as BCP 47 tags via golang.org/x/text so regional variants
// such as "pt-BR" or "zh-Hant" survive normalization, while common English
// word forms ("korean") and ISO 639-2 bibliographic codes ("fre") are mapped
// through a small alias table first.
package language
