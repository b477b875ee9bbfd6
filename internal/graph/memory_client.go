package graph

import (
	"context"
	"maps"
	"sync"
)

// MemoryClient records every statement instead of running it. Tests use it
// to check the cypher a sink produces without a graph database.
type MemoryClient struct {
	mu          sync.Mutex
	writeCalls  []ExecutedQuery
	readCalls   []ExecutedQuery
	readResults []Result
	err         error
	failAfter   int
}

// ExecutedQuery captures a cypher statement and its parameters.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// NewMemoryClient returns an empty recording client
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{failAfter: -1}
}

// WithError makes every call fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailAfter lets n writes succeed, then fails the rest with err.
func (m *MemoryClient) FailAfter(n int, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.err = err
	return m
}

// PushReadResult queues a result for the next ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

func (m *MemoryClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil && (m.failAfter < 0 || len(m.writeCalls) >= m.failAfter) {
		return Result{}, m.err
	}
	m.writeCalls = append(m.writeCalls, ExecutedQuery{Query: cypher, Params: maps.Clone(params)})
	return Result{}, nil
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil && m.failAfter < 0 {
		return Result{}, m.err
	}
	m.readCalls = append(m.readCalls, ExecutedQuery{Query: cypher, Params: maps.Clone(params)})

	if len(m.readResults) == 0 {
		return Result{}, nil
	}
	res := m.readResults[0]
	m.readResults = m.readResults[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter < 0 {
		return m.err
	}
	return nil
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// WriteCalls returns a snapshot of executed write queries.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

// ReadCalls returns a snapshot of executed read queries.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.readCalls...)
}
