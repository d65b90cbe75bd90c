// Package labels canonicalizes topic labels and resolves them against the
// label store.
//
// Labels produced by a language model drift in casing, punctuation and
// pluralization between calls. Normalize maps a label to its canonical form
// and FindSimilar reconciles a new label with existing ones using an exact
// match, then an edit-distance ratio above SimilarityThreshold, then a
// singular/plural check. Store applies this at the point of creation so
// near-duplicates collapse onto the first stored spelling.
package labels
