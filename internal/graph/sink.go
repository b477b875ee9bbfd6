package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sink"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement
const DefaultBatchSize = 500

// nodeLabels maps the tables written as nodes to their label. Other tables
// (transactions, schedules) are too large to be useful in the graph.
var nodeLabels = []struct {
	Table string
	Label string
}{
	{models.TableCustomers, "Customer"},
	{models.TableAccounts, "Account"},
	{models.TableLoans, "Loan"},
	{models.TableCollateral, "Collateral"},
	{models.TableCreditScores, "CreditScore"},
}

// relationship turns one foreign key column into an edge. The edge points
// from the referenced node to the row unless FromRow is set.
type relationship struct {
	Table   string
	Column  string
	Type    string
	FromRow bool
}

var relationships = []relationship{
	{Table: models.TableAccounts, Column: "customer_id", Type: "OWNS"},
	{Table: models.TableLoans, Column: "customer_id", Type: "BORROWED"},
	{Table: models.TableLoans, Column: "account_id", Type: "DISBURSED_TO", FromRow: true},
	{Table: models.TableCollateral, Column: "loan_id", Type: "SECURED_BY"},
	{Table: models.TableCollateral, Column: "customer_id", Type: "PLEDGED"},
	{Table: models.TableCreditScores, Column: "customer_id", Type: "HAS_SCORE"},
}

func labelOf(table string) string {
	for _, n := range nodeLabels {
		if n.Table == table {
			return n.Label
		}
	}
	return ""
}

// Sink writes customers and their accounts, loans, collateral and scores as
// nodes with MERGE, so repeated runs with the same seed converge.
type Sink struct {
	Client    Client
	BatchSize int
	Logger    *slog.Logger
	Progress  sink.ProgressFunc
}

// Name implements sink.Sink
func (s *Sink) Name() string { return "neo4j" }

// Write creates constraints, then nodes, then relationships.
func (s *Sink) Write(ctx context.Context, p *models.Portfolio) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	tables := make(map[string]models.Table)
	for _, t := range p.Tables() {
		tables[t.Name] = t
	}

	for _, n := range nodeLabels {
		if _, err := s.Client.ExecuteWrite(ctx, ConstraintCypher(n.Label, tables[n.Table].PrimaryKey()), nil); err != nil {
			return fmt.Errorf("create constraint on %s: %w", n.Label, err)
		}
	}

	for _, n := range nodeLabels {
		t := tables[n.Table]
		if err := s.writeNodes(ctx, t, n.Label, batch); err != nil {
			return err
		}
		logger.Debug("graph nodes written", slog.String("label", n.Label), slog.Int("count", t.Len))
	}

	for _, rel := range relationships {
		if err := s.writeRelationships(ctx, tables, rel, batch); err != nil {
			return err
		}
	}

	counts, err := NodeCounts(ctx, s.Client)
	if err != nil {
		return err
	}
	for _, label := range Labels() {
		logger.Debug("graph label total", slog.String("label", label), slog.Int64("nodes", counts[label]))
	}
	return nil
}

func (s *Sink) writeNodes(ctx context.Context, t models.Table, label string, batch int) error {
	cypher := NodeCypher(label, t.PrimaryKey())
	rows := make([]map[string]any, 0, batch)
	written := 0

	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if _, err := s.Client.ExecuteWrite(ctx, cypher, map[string]any{"rows": rows}); err != nil {
			return fmt.Errorf("write %s nodes: %w", label, err)
		}
		written += len(rows)
		if s.Progress != nil {
			s.Progress(t.Name, written, t.Len)
		}
		rows = make([]map[string]any, 0, batch)
		return nil
	}

	for rec := range t.Rows {
		props, err := nodeProperties(t, rec)
		if err != nil {
			return err
		}
		rows = append(rows, props)
		if len(rows) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (s *Sink) writeRelationships(ctx context.Context, tables map[string]models.Table, rel relationship, batch int) error {
	t := tables[rel.Table]
	col := -1
	for i, c := range t.Columns {
		if c.Name == rel.Column {
			col = i
		}
	}
	if col < 0 || t.Columns[col].Ref == "" {
		return fmt.Errorf("%s.%s is not a reference", rel.Table, rel.Column)
	}
	parent := tables[t.Columns[col].Ref]

	from := endpoint{Label: labelOf(parent.Name), Key: parent.PrimaryKey()}
	to := endpoint{Label: labelOf(t.Name), Key: t.PrimaryKey()}
	if rel.FromRow {
		from, to = to, from
	}
	cypher := relationshipCypher(from, rel.Type, to)

	rows := make([]map[string]any, 0, batch)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if _, err := s.Client.ExecuteWrite(ctx, cypher, map[string]any{"rows": rows}); err != nil {
			return fmt.Errorf("write %s relationships: %w", rel.Type, err)
		}
		rows = make([]map[string]any, 0, batch)
		return nil
	}

	for rec := range t.Rows {
		ref := rec.Values()[col]
		if ref == "" {
			continue
		}
		row := map[string]any{"from": ref, "to": rec.Key()}
		if rel.FromRow {
			row = map[string]any{"from": rec.Key(), "to": ref}
		}
		rows = append(rows, row)
		if len(rows) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// nodeProperties converts a record to node properties. Money and rates
// become floats so they can be compared in queries; nulls are dropped.
func nodeProperties(t models.Table, rec models.Record) (map[string]any, error) {
	props, err := t.Map(rec)
	if err != nil {
		return nil, err
	}
	for _, c := range t.Columns {
		v, ok := props[c.Name]
		if !ok || v == nil {
			delete(props, c.Name)
			continue
		}
		if c.Kind == models.KindMoney || c.Kind == models.KindRate {
			f, err := strconv.ParseFloat(v.(string), 64)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
			}
			props[c.Name] = f
		}
	}
	return props, nil
}

type endpoint struct {
	Label string
	Key   string
}

// ConstraintCypher makes key unique for label, which also indexes it for MERGE
func ConstraintCypher(label, key string) string {
	return fmt.Sprintf("CREATE CONSTRAINT %s_%s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		strings.ToLower(label), key, label, key)
}

// NodeCypher upserts a batch of $rows as label nodes keyed by key
func NodeCypher(label, key string) string {
	return fmt.Sprintf("UNWIND $rows AS row\nMERGE (n:%s {%s: row.%s})\nSET n += row", label, key, key)
}

// relationshipCypher links a batch of $rows, each with from and to keys
func relationshipCypher(from endpoint, relType string, to endpoint) string {
	return fmt.Sprintf("UNWIND $rows AS row\nMATCH (a:%s {%s: row.from})\nMATCH (b:%s {%s: row.to})\nMERGE (a)-[:%s]->(b)",
		from.Label, from.Key, to.Label, to.Key, relType)
}

// CountCypher returns the node count per label written by the sink.
const CountCypher = "MATCH (n) WHERE any(l IN labels(n) WHERE l IN $labels)\nRETURN labels(n)[0] AS label, count(n) AS count"

// Labels returns the node labels the sink writes.
func Labels() []string {
	labels := make([]string, len(nodeLabels))
	for i, n := range nodeLabels {
		labels[i] = n.Label
	}
	return labels
}

// NodeCounts reads back how many nodes of each label the database holds.
func NodeCounts(ctx context.Context, c Client) (map[string]int64, error) {
	res, err := c.ExecuteRead(ctx, CountCypher, map[string]any{"labels": Labels()})
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	counts := make(map[string]int64, len(res.Records))
	for _, r := range res.Records {
		label, _ := r["label"].(string)
		n, _ := r["count"].(int64)
		counts[label] = n
	}
	return counts, nil
}
