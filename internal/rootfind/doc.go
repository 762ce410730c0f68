// Package rootfind solves square nonlinear systems F(x) = 0 without
// analytic derivatives.
//
// Hybrid is a Powell dogleg trust-region method. The Jacobian is
// estimated by forward differences, kept current with Broyden rank-one
// updates and re-estimated only when the model stops predicting the
// residual well. Newton steps are minimum-norm least-squares solutions,
// so systems whose Jacobian has a null space (for instance a residual that
// ignores a constant shift of x) are handled without regularisation.
//
// Every call to Problem.Func counts against Settings.MaxEvaluations,
// including those spent on the Jacobian. Running out of budget is reported
// through Result.Status, not as an error.
package rootfind
