// Package analysis inspects recorded metric series of a cloth run.
//
//   - [ComputeSpectrum]: windowed amplitude spectrum of a uniformly sampled series
//   - [DominantFrequency]: strongest non-DC component, e.g. the sway of a tracked particle
//   - [SettleIndex]: first sample after which a series stays under a tolerance
//
// # Sway
//
// With run.track set, the stored series holds the height of one particle.
// Its dominant frequency is the cloth's swing rate:
//
//	freq, _, err := analysis.DominantFrequency(series.Columns["track_40"], dt)
package analysis
