// Package espsel predicts the operating point of electric submersible pump
// wells.
//
// Three quantities are modelled: production, total dynamic head and the
// gas-liquid ratio at the pump intake. Each has a learned model and an
// empirical correlation. The hybrid selector reports the model value when
// both agree within a tolerance and the empirical value otherwise.
//
// # Features
//
//   - SVR with grid-searched hyperparameters for production and head
//   - Residual network with early stopping for the gas-liquid ratio
//   - Data cleaning with coercion, missing value and quantile outlier filters
//   - Inflow performance (IPR) curves and empirical head and GLR formulas
//   - Asynchronous training with ordered progress events and cancellation
//
// # Quick Start
//
//	f, err := facade.New(facade.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := f.PredictAll(ctx, predictor.PredictionInput{
//	    Geopressure:        20,
//	    ProduceIndex:       5,
//	    SaturationPressure: 10,
//	    // ...
//	})
//	fmt.Println(res.Production, res.TotalHead, res.GasRate)
//
// Training from a configured record store is done with the espsel command:
//
//	espsel train -c espsel.yaml
//	espsel predict -c espsel.yaml -i well.yaml
//
// # Packages
//
//   - dataclean: record cleaning into design matrices
//   - formula, ipr: empirical correlations
//   - svr, resnet: training backends
//   - predictor: per-task lifecycle, persistence and async training
//   - hybrid: model versus empirical arbitration
//   - facade: combined predictions with lazy model loading
//   - artifact: diskv-backed artifact store
//   - source, config, chart: record store, YAML configuration and figures
//   - callback: training event bus and UI adapter
//   - core/model, core/parallel: shared interfaces and worker helpers
//   - pkg/errors, pkg/log: structured errors and logging
package espsel
