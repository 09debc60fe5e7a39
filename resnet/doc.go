// Package resnet implements the residual feed-forward network backend used
// for the gas-liquid ratio task.
//
// Inputs are expanded to degree-2 polynomial features and standardized
// before reaching the network:
//
//	Dense(in→H) ReLU
//	7 × [Dense(H→H) ReLU → Dropout → Dense(H→H); out = ReLU(x + block)]
//	Dense(H→1)
//
// Training minimizes the epsilon-safe MAPE with Adam and stops early on
// the validation loss, restoring the best weights. Artifacts are stored
// as "Model", "Scaler" and "Poly"; a model without its polynomial
// transform cannot be loaded.
package resnet
