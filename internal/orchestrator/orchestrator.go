// Package orchestrator runs a question through the pipeline: SQL generation,
// read-only guard, execution, visualization selection and the written answer.
package orchestrator

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	sqlagent "github.com/anuvratrastogi/vizchat/internal/agents/sql"
	"github.com/anuvratrastogi/vizchat/internal/logging"
	"github.com/anuvratrastogi/vizchat/internal/viz"
	"github.com/anuvratrastogi/vizchat/pkg/intent"
)

// ErrEmptyQuestion is returned for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// User-facing answers for failed questions.
const (
	answerUnsupported   = "I could not answer this question using the available data."
	answerGenerateError = "I could not turn this question into a query."
	answerNotReadOnly   = "Only read-only analytical queries are supported."
	answerQueryError    = "There was an error executing the query on the database."
	answerFallback      = "Here are the results."
)

const (
	confidenceUnsupported = 0.2
	confidenceFailure     = 0.1
	minHintConfidence     = 0.5
	defaultRowLimit       = 100
)

// SQLGenerator turns a question into SQL.
type SQLGenerator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// Answerer writes the natural language answer.
type Answerer interface {
	Answer(ctx context.Context, question, sql string, rows []viz.Row) (string, error)
}

// Querier executes SQL.
type Querier interface {
	Query(ctx context.Context, query string, limit int) ([]viz.Row, error)
}

// Cache stores responses by question.
type Cache interface {
	Get(ctx context.Context, question string) (*viz.Response, bool, error)
	Set(ctx context.Context, question string, resp *viz.Response) error
}

// HintClassifier suggests a chart type from the question text.
type HintClassifier interface {
	ClassifyWithConfidence(question string) (intent.Hint, float64)
}

// Config holds the pipeline collaborators.
type Config struct {
	Generator SQLGenerator
	Answerer  Answerer
	Database  Querier
	// Cache is optional
	Cache Cache
	// Classifier defaults to intent.NewClassifier()
	Classifier HintClassifier
	// RowLimit is appended to queries without a LIMIT; defaults to 100
	RowLimit int
	// DateColumns overrides the columns treated as time axes
	DateColumns []string
}

// Orchestrator answers questions.
type Orchestrator struct {
	generator  SQLGenerator
	answerer   Answerer
	db         Querier
	cache      Cache
	classifier HintClassifier
	rowLimit   int
	selectOpts []viz.SelectOption
	newID      func() string
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Generator == nil || cfg.Answerer == nil || cfg.Database == nil {
		return nil, errors.New("failed to create orchestrator: generator, answerer and database are required")
	}

	o := &Orchestrator{
		generator:  cfg.Generator,
		answerer:   cfg.Answerer,
		db:         cfg.Database,
		cache:      cfg.Cache,
		classifier: cfg.Classifier,
		rowLimit:   cfg.RowLimit,
		newID:      uuid.NewString,
	}
	if o.classifier == nil {
		o.classifier = intent.NewClassifier()
	}
	if o.rowLimit <= 0 {
		o.rowLimit = defaultRowLimit
	}
	if len(cfg.DateColumns) > 0 {
		o.selectOpts = append(o.selectOpts, viz.WithDateColumns(cfg.DateColumns...))
	}
	return o, nil
}

// HandleQuery answers question. Failures to generate, guard or execute SQL are
// reported in the response with a low confidence; the returned error is only
// set for an empty question or a cancelled context.
func (o *Orchestrator) HandleQuery(ctx context.Context, question string) (*viz.Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := time.Now()
	id := o.newID()

	if cached, ok := o.lookup(ctx, id, question); ok {
		cached.ID = id
		return cached, nil
	}

	resp, err := o.run(ctx, id, question)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Add(logging.Component("orchestrator")).
		Add(logging.RequestID(id)).
		Add(logging.Chart(chartType(resp.Visualization))).
		Add(logging.Rows(len(resp.Data))).
		Add(logging.SQL(resp.SQL)).
		Add(logging.Duration(time.Since(start))).
		Add(logging.Cached(false)).
		Msg("question answered")

	// Only answered questions carry a visualization.
	if resp.Visualization != nil {
		o.store(ctx, id, question, resp)
	}
	return resp, nil
}

func (o *Orchestrator) run(ctx context.Context, id, question string) (*viz.Response, error) {
	query, err := o.generator.Generate(ctx, question)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, sqlagent.ErrUnsupported) {
			return &viz.Response{ID: id, Answer: answerUnsupported, Confidence: confidenceUnsupported}, nil
		}
		o.warn(id, "SQL generation failed", err)
		return &viz.Response{ID: id, Answer: answerGenerateError, Error: err.Error(), Confidence: confidenceFailure}, nil
	}

	query = sqlagent.CleanSQL(query)
	if err := sqlagent.Guard(query); err != nil {
		o.warn(id, "rejected generated SQL", err)
		return &viz.Response{ID: id, Answer: answerNotReadOnly, SQL: query, Confidence: confidenceFailure}, nil
	}

	rows, err := o.db.Query(ctx, query, o.rowLimit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.warn(id, "query failed", err)
		return &viz.Response{
			ID:         id,
			Answer:     answerQueryError,
			SQL:        query,
			Error:      err.Error(),
			Confidence: confidenceFailure,
		}, nil
	}

	spec := viz.Select(rows, o.selectOptions(question)...)

	answer, err := o.answerer.Answer(ctx, question, query, rows)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.warn(id, "answer generation failed", err)
		answer = answerFallback
	}

	return &viz.Response{
		ID:            id,
		Answer:        answer,
		Visualization: &spec,
		Data:          rows,
		SQL:           query,
		Confidence:    Confidence(rows, spec),
	}, nil
}

func (o *Orchestrator) selectOptions(question string) []viz.SelectOption {
	opts := o.selectOpts
	if hint, confidence := o.classifier.ClassifyWithConfidence(question); hint != intent.HintNone && confidence >= minHintConfidence {
		opts = append(opts[:len(opts):len(opts)], viz.WithHint(viz.ChartType(hint)))
	}
	return opts
}

// Confidence scores a successful response: 0.6 base, +0.2 with data, +0.1 for
// a chart other than table or empty, +0.1 for at most 10 rows, capped at 0.95.
func Confidence(rows []viz.Row, spec viz.Spec) float64 {
	c := 0.6
	if len(rows) > 0 {
		c += 0.2
	}
	if spec.Type != viz.ChartTable && spec.Type != viz.ChartEmpty {
		c += 0.1
	}
	if len(rows) <= 10 {
		c += 0.1
	}
	return math.Round(math.Min(c, 0.95)*100) / 100
}

func (o *Orchestrator) lookup(ctx context.Context, id, question string) (*viz.Response, bool) {
	if o.cache == nil {
		return nil, false
	}
	resp, ok, err := o.cache.Get(ctx, question)
	if err != nil {
		o.warn(id, "cache lookup failed", err)
		return nil, false
	}
	if ok {
		logging.Info().
			Add(logging.Component("orchestrator")).
			Add(logging.RequestID(id)).
			Add(logging.Cached(true)).
			Msg("question answered")
	}
	return resp, ok
}

func (o *Orchestrator) store(ctx context.Context, id, question string, resp *viz.Response) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Set(ctx, question, resp); err != nil {
		o.warn(id, "cache store failed", err)
	}
}

func (o *Orchestrator) warn(id, msg string, err error) {
	logging.Warn().
		Add(logging.Component("orchestrator")).
		Add(logging.RequestID(id)).
		Add(logging.ErrorField(err)).
		Msg(msg)
}

func chartType(spec *viz.Spec) string {
	if spec == nil {
		return "none"
	}
	return string(spec.Type)
}
