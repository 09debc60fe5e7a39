package facade

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/core/parallel"
	"github.com/YuminosukeSato/espsel/hybrid"
	"github.com/YuminosukeSato/espsel/ipr"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
	"github.com/YuminosukeSato/espsel/predictor"
	"github.com/YuminosukeSato/espsel/resnet"
	"github.com/YuminosukeSato/espsel/svr"
)

// DefaultConfidence is reported with every prediction.
const DefaultConfidence = 0.85

// Source tells where a reported quantity came from.
type Source string

const (
	SourceModel     Source = "model"
	SourceEmpirical Source = "empirical"
	SourceFallback  Source = "fallback"

	// SourceUnavailable marks a quantity for which neither the model nor
	// the empirical correlation produced a value.
	SourceUnavailable Source = "unavailable"
)

// Config configures a Facade.
type Config struct {
	ModelDir        string
	MaxErrorPercent float64
	IPRPoints       int
	Training        predictor.TrainingConfig
	CacheSize       int
}

// DefaultConfig returns a config reading models from ./models.
func DefaultConfig() Config {
	return Config{
		ModelDir:        "models",
		MaxErrorPercent: hybrid.DefaultMaxErrorPercent,
		IPRPoints:       ipr.DefaultPoints,
		Training:        predictor.DefaultTrainingConfig(),
		CacheSize:       len(predictor.Tasks),
	}
}

// Quantity is the outcome for one predicted quantity.
type Quantity struct {
	Task predictor.TaskName `json:"task"`
	hybrid.SelectionResult
	Source Source `json:"source"`
	Error  string `json:"error,omitempty"`
}

// PredictionResult is the combined prediction for one well.
type PredictionResult struct {
	Production float64                         `json:"production"`
	TotalHead  float64                         `json:"total_head"`
	GasRate    float64                         `json:"gas_rate"`
	Confidence float64                         `json:"confidence"`
	Details    map[predictor.TaskName]Quantity `json:"details"`
}

// BackendFactory builds an untrained backend for task.
type BackendFactory func(task predictor.TaskName) (model.Trainable, error)

// NewBackend maps task to its backend. Configurable backends take their
// hyperparameters from the Predictor's TrainingConfig at Train time.
func NewBackend(task predictor.TaskName) (model.Trainable, error) {
	backend, ok := predictor.BackendOf(task)
	if !ok {
		return nil, errors.NewValidationError("task", "unknown task", string(task))
	}
	switch backend {
	case model.BackendSVR:
		return svr.New(string(task)), nil
	case model.BackendResidualNet:
		return resnet.New(string(task)), nil
	}
	return nil, errors.Newf("no backend for %s", backend)
}

// Facade serves predictions for all tasks.
type Facade struct {
	cfg     Config
	factory BackendFactory
	logger  log.Logger

	cache *lru.Cache
	mu    sync.Mutex
	locks map[predictor.TaskName]*sync.Mutex
}

// Option configures a Facade.
type Option func(*Facade)

// WithBackendFactory replaces NewBackend.
func WithBackendFactory(f BackendFactory) Option {
	return func(fc *Facade) { fc.factory = f }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(fc *Facade) { fc.logger = l }
}

// New creates a Facade. Nothing is loaded until the first prediction.
func New(cfg Config, opts ...Option) (*Facade, error) {
	if cfg.MaxErrorPercent <= 0 {
		cfg.MaxErrorPercent = hybrid.DefaultMaxErrorPercent
	}
	if cfg.IPRPoints == 0 {
		cfg.IPRPoints = ipr.DefaultPoints
	}
	cfg.CacheSize = max(cfg.CacheSize, len(predictor.Tasks))

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "facade: create cache")
	}
	f := &Facade{
		cfg:   cfg,
		cache: cache,
		locks: make(map[predictor.TaskName]*sync.Mutex),
	}
	f.factory = NewBackend
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.GetLoggerWithName("facade")
	}
	return f, nil
}

// Config returns the facade configuration.
func (f *Facade) Config() Config { return f.cfg }

func (f *Facade) taskLock(task predictor.TaskName) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[task]
	if !ok {
		l = &sync.Mutex{}
		f.locks[task] = l
	}
	return l
}

// Predictor returns the loaded predictor of task, loading it on first use.
// Concurrent first callers load once.
func (f *Facade) Predictor(task predictor.TaskName) (*predictor.Predictor, error) {
	if v, ok := f.cache.Get(task); ok {
		return v.(*predictor.Predictor), nil
	}
	l := f.taskLock(task)
	l.Lock()
	defer l.Unlock()
	if v, ok := f.cache.Get(task); ok {
		return v.(*predictor.Predictor), nil
	}

	backend, err := f.factory(task)
	if err != nil {
		return nil, err
	}
	p := predictor.New(task, backend,
		predictor.WithTrainingConfig(f.cfg.Training),
		predictor.WithLogger(f.logger),
	)
	if err := p.Load(f.cfg.ModelDir); err != nil {
		return nil, err
	}
	f.cache.Add(task, p)
	return p, nil
}

// Invalidate drops the cached predictor of task so the next prediction
// reloads it from disk.
func (f *Facade) Invalidate(task predictor.TaskName) {
	f.cache.Remove(task)
}

// Reset drops every cached predictor.
func (f *Facade) Reset() {
	f.cache.Purge()
}

// Empirical returns the empirical value of task for in.
func Empirical(task predictor.TaskName, in predictor.PredictionInput) (float64, error) {
	switch task {
	case predictor.TaskProduction:
		return EmpiricalProduction(in)
	case predictor.TaskHead:
		return EmpiricalTotalHead(in), nil
	case predictor.TaskGLR:
		return EmpiricalGasRate(in), nil
	}
	return 0, errors.NewValidationError("task", "unknown task", string(task))
}

// PredictAll predicts production, total head and gas rate independently.
// A quantity that cannot be computed is reported with its Error set and
// never blocks the other two. PredictAll fails only when ctx is done.
func (f *Facade) PredictAll(ctx context.Context, in predictor.PredictionInput) (*PredictionResult, error) {
	quantities := make([]Quantity, len(predictor.Tasks))
	err := parallel.ForEach(ctx, len(predictor.Tasks), len(predictor.Tasks), func(i int) error {
		quantities[i] = f.predictOne(predictor.Tasks[i], in)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &PredictionResult{
		Confidence: DefaultConfidence,
		Details:    make(map[predictor.TaskName]Quantity, len(quantities)),
	}
	for _, q := range quantities {
		res.Details[q.Task] = q
	}
	res.Production = res.Details[predictor.TaskProduction].SelectedValue
	res.TotalHead = res.Details[predictor.TaskHead].SelectedValue
	res.GasRate = res.Details[predictor.TaskGLR].SelectedValue
	return res, nil
}

func (f *Facade) predictOne(task predictor.TaskName, in predictor.PredictionInput) Quantity {
	q := Quantity{Task: task}
	empirical, empErr := Empirical(task, in)
	value, modelErr := f.modelValue(task, in)

	switch {
	case empErr != nil && modelErr != nil:
		f.logger.Error("Quantity unavailable",
			log.ErrAttrKey, empErr,
			"model_error", modelErr.Error(),
			log.QuantityKey, string(task),
		)
		q.Source = SourceUnavailable
		q.Error = errors.Wrapf(empErr, "model: %v", modelErr).Error()
		return q

	case empErr != nil:
		f.logger.Warn("Empirical value unavailable, using model value",
			log.ErrAttrKey, empErr,
			log.QuantityKey, string(task),
			log.SourceKey, string(SourceModel),
		)
		q.SelectionResult = hybrid.SelectionResult{
			ModelValue:      value,
			SelectedValue:   value,
			SelectionMethod: hybrid.MethodModel,
		}
		q.Source = SourceModel
		q.Error = empErr.Error()
		return q

	case modelErr != nil:
		f.logger.Warn("Model unavailable, using empirical value",
			log.ErrAttrKey, modelErr,
			log.QuantityKey, string(task),
			log.SourceKey, string(SourceFallback),
		)
		q.SelectionResult = hybrid.SelectionResult{
			EmpiricalValue:  empirical,
			SelectedValue:   empirical,
			SelectionMethod: hybrid.MethodEmpirical,
		}
		q.Source = SourceFallback
		q.Error = modelErr.Error()
		return q
	}

	q.SelectionResult = hybrid.Select(value, empirical, hybrid.WithMaxErrorPercent(f.cfg.MaxErrorPercent))
	q.Source = SourceEmpirical
	if q.SelectionMethod == hybrid.MethodModel {
		q.Source = SourceModel
	}
	f.logger.Debug("Quantity predicted",
		log.QuantityKey, string(task),
		log.SourceKey, string(q.Source),
		"error_percent", q.ErrorPercent,
	)
	return q
}

func (f *Facade) modelValue(task predictor.TaskName, in predictor.PredictionInput) (v float64, err error) {
	defer errors.Recover(&err, "Facade.predict")
	p, err := f.Predictor(task)
	if err != nil {
		return 0, err
	}
	return p.Predict(in)
}

// IPRCurve returns the inflow curve of the well described by in.
func (f *Facade) IPRCurve(in predictor.PredictionInput) ([]ipr.Point, error) {
	return ipr.Generate(iprParams(in, f.cfg.IPRPoints))
}
