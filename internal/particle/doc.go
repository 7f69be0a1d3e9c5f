// Package particle implements the lumped soot-precursor particle model:
// PAH dimer inception, volume fraction and gas-phase scrubbing.
//
// Every function is a deterministic function of its arguments and a
// [Constants] table passed by pointer. No package-level state is read or
// written, so the kinetics can be called from any number of independent runs.
//
// Units follow the CGS/SI mix of the mechanism they come from: pressure in
// Pa, temperature in K, concentrations in mol/cc, number densities in #/cc
// and volume fractions in ppm.
package particle
