// Package bands implements the frequency-band splitting filters used in
// front of the noise suppressor: a two-band all-pass QMF pair and a
// three-band cosine-modulated filter bank, plus a SplittingFilter that
// selects the right decomposition for a given band count.
//
// All filters are stateful and per-channel. Analysis and synthesis are
// inverses up to a short, fixed delay; band signals are critically sampled.
package bands
