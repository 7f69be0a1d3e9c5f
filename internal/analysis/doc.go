// Package analysis inspects coupled-run output.
//
//   - [Refine]: step-refinement study of the operator-split scheme
//   - [NonDecreasing], [StrictlyIncreasing]: monotonicity checks
//   - [Summarize], [SummarizeResult]: per-series statistics
//
// # Convergence
//
// The lagged coupling is first order in the step size: halving dt should
// roughly halve the difference between successive levels.
//
//	ref, err := analysis.Refine(ctx, run, 1e-3, 4, 2)
//	if err == nil && ref.Converging() {
//	    fmt.Printf("observed order %.2f\n", ref.Order())
//	}
package analysis
