// Package svr implements the support vector regression backend.
//
// Features are standardized on the training partition, hyperparameters are
// chosen by k-fold grid search and the final ε-insensitive kernel machine
// is solved in the dual by cyclic coordinate descent. The bias is folded
// into the kernel (K+1) so the dual has only box constraints |β| ≤ C.
//
// Artifacts are stored as "{task}-Model" and "{task}-Scaler".
package svr
