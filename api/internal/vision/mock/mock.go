// Package mock provides a scripted vision engine for tests. Each call pops
// the next queued result for its operation; an exhausted queue repeats the
// last entry.
package mock

import (
	"context"
	"sync"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

type result[T any] struct {
	val T
	err error
}

type queue[T any] struct {
	mu    sync.Mutex
	items []result[T]
	calls int
}

func (q *queue[T]) push(val T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, result[T]{val: val, err: err})
}

func (q *queue[T]) next() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	var zero T
	if len(q.items) == 0 {
		return zero, nil
	}
	r := q.items[0]
	if len(q.items) > 1 {
		q.items = q.items[1:]
	}
	return r.val, r.err
}

func (q *queue[T]) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

type Engine struct {
	classify queue[vision.ClassifyResponse]
	geometry queue[vision.GeometryResponse]
	fill     queue[vision.FillResponse]
}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "mock" }

func (e *Engine) QueueClassify(v vision.ClassifyResponse, err error) { e.classify.push(v, err) }
func (e *Engine) QueueGeometry(v vision.GeometryResponse, err error) { e.geometry.push(v, err) }
func (e *Engine) QueueFill(v vision.FillResponse, err error)         { e.fill.push(v, err) }

func (e *Engine) ClassifyCalls() int { return e.classify.count() }
func (e *Engine) GeometryCalls() int { return e.geometry.count() }
func (e *Engine) FillCalls() int     { return e.fill.count() }

func (e *Engine) ClassifyVehicle(ctx context.Context, _ vision.ClassifyRequest) (vision.ClassifyResponse, error) {
	if err := ctx.Err(); err != nil {
		return vision.ClassifyResponse{}, err
	}
	return e.classify.next()
}

func (e *Engine) DetectGeometry(ctx context.Context, _ vision.GeometryRequest) (vision.GeometryResponse, error) {
	if err := ctx.Err(); err != nil {
		return vision.GeometryResponse{}, err
	}
	return e.geometry.next()
}

func (e *Engine) EstimateFill(ctx context.Context, _ vision.FillRequest) (vision.FillResponse, error) {
	if err := ctx.Err(); err != nil {
		return vision.FillResponse{}, err
	}
	return e.fill.next()
}
