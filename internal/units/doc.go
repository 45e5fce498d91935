// Package units documents, without enforcing, the unit system this
// engine assumes throughout: Lennard-Jones reduced units, matching the
// original ls1-mardyn convention (original_source/ works in reduced
// units throughout). Energies are in multiples of epsilon, lengths in
// multiples of sigma, mass in multiples of a reference molecule mass,
// and time in the derived unit sqrt(mass*sigma^2/epsilon).
//
// spec.md section 8's formulas (S1-S3) are unit-agnostic as written, so
// nothing in the core reads this package; it exists purely so a preset
// author or config editor has a single place documenting what scale a
// preset's epsilon/sigma/mass values are expressed in.
package units
