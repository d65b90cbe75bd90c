// Package chunker splits document text into token-bounded chunks.
//
// Two strategies are supported:
//   - Prose: text is split on a separator (a period by default). Segments that
//     fit the token budget become one chunk each; longer segments are cut with a
//     sliding token window that keeps OverlapTokens of shared context.
//   - Record: text is split on RecordSeparator and whole records are packed
//     greedily into chunks. A record is never split across chunks.
//
// DetectStrategy picks the strategy from the text itself. All token counting
// goes through a single Tokenizer supplied to New, so counts are reproducible
// for identical input.
package chunker
