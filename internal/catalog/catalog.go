package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// Kind classifies a transition edge by its retry semantics.
type Kind string

const (
	// KindPipeline is ordinary automatic forward progression.
	KindPipeline Kind = "pipeline"
	// KindManual requires operator confirmation before applying.
	KindManual Kind = "manual"
	// KindRetryable is gated on an external constraint re-evaluated each
	// planning cycle (remote storage quota).
	KindRetryable Kind = "retryable"
)

// Status is one state in the pipeline graph.
type Status struct {
	Code        Code
	Label       string
	Description string
	Stage       string
	Script      string // external action command template, "" when entering the state runs nothing
}

// Transition is a directed edge between two statuses.
type Transition struct {
	From Code
	To   Code
	Kind Kind
}

// ErrNotFound signals a terminal state: no successor of the requested kind
// exists. Distinct from an unknown code, which is a configuration error.
var ErrNotFound = errors.New("no such transition")

// Catalog is the loaded status graph. Immutable after Load.
type Catalog struct {
	statuses map[string]Status
	outgoing map[string][]Transition
}

// Load reads the status catalog and transition edges from the store.
func Load(conn *sql.DB) (*Catalog, error) {
	c := &Catalog{
		statuses: make(map[string]Status),
		outgoing: make(map[string][]Transition),
	}

	rows, err := conn.Query(
		`SELECT code, short_label, COALESCE(full_description, ''), COALESCE(pipeline_stage, ''),
		        COALESCE(script_name, '')
		 FROM batch_status`)
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var s Status
		if err := rows.Scan(&code, &s.Label, &s.Description, &s.Stage, &s.Script); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		s.Code, err = ParseCode(code)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.statuses[code]; dup {
			return nil, fmt.Errorf("catalog: duplicate status code %q", code)
		}
		c.statuses[code] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edges, err := conn.Query(`SELECT preceding_code, code, transition_type FROM batch_transitions`)
	if err != nil {
		return nil, fmt.Errorf("load transitions: %w", err)
	}
	defer edges.Close()
	for edges.Next() {
		var from, to, kind string
		if err := edges.Scan(&from, &to, &kind); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t := Transition{Kind: Kind(kind)}
		if t.From, err = ParseCode(from); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if t.To, err = ParseCode(to); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.outgoing[from] = append(c.outgoing[from], t)
	}
	if err := edges.Err(); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate enforces the graph invariants: every edge endpoint exists and each
// state has at most one outgoing edge per kind.
func (c *Catalog) validate() error {
	for from, ts := range c.outgoing {
		if _, ok := c.statuses[from]; !ok {
			return fmt.Errorf("catalog: transition from unknown code %q", from)
		}
		seen := make(map[Kind]bool)
		for _, t := range ts {
			if _, ok := c.statuses[t.To.String()]; !ok {
				return fmt.Errorf("catalog: transition %s->%s targets unknown code", from, t.To)
			}
			if seen[t.Kind] {
				return fmt.Errorf("catalog: %q has multiple %s successors", from, t.Kind)
			}
			seen[t.Kind] = true
		}
	}
	return nil
}

// Status returns the catalog entry for code. An unknown code is a hard
// configuration error.
func (c *Catalog) Status(code Code) (Status, error) {
	s, ok := c.statuses[code.String()]
	if !ok {
		return Status{}, fmt.Errorf("status code %q not in catalog", code)
	}
	return s, nil
}

// NextStatus returns the unique pipeline-kind successor of code, or
// ErrNotFound when code is terminal on the main line.
func (c *Catalog) NextStatus(code Code) (Status, error) {
	if _, err := c.Status(code); err != nil {
		return Status{}, err
	}
	for _, t := range c.outgoing[code.String()] {
		if t.Kind == KindPipeline {
			return c.Status(t.To)
		}
	}
	return Status{}, fmt.Errorf("pipeline successor of %s: %w", code, ErrNotFound)
}

// ErrorStatus returns the paired error variant for a main-line code, or
// ErrNotFound if the catalog defines none.
func (c *Catalog) ErrorStatus(code Code) (Status, error) {
	if _, err := c.Status(code); err != nil {
		return Status{}, err
	}
	s, ok := c.statuses[code.ErrorVariant().String()]
	if !ok {
		return Status{}, fmt.Errorf("error variant of %s: %w", code, ErrNotFound)
	}
	return s, nil
}

// TransitionsOf returns every outgoing edge from code, all kinds.
func (c *Catalog) TransitionsOf(code Code) []Transition {
	return c.outgoing[code.String()]
}

// PipelinePredecessor returns the main-line state whose pipeline edge leads
// into code, or ErrNotFound for the head of the chain. Used to rewind a batch
// out of an error variant so the failed step can be retried.
func (c *Catalog) PipelinePredecessor(code Code) (Status, error) {
	if _, err := c.Status(code); err != nil {
		return Status{}, err
	}
	target := code.MainLine()
	for from, ts := range c.outgoing {
		for _, t := range ts {
			if t.Kind == KindPipeline && t.To == target {
				return c.Status(MustCode(from))
			}
		}
	}
	return Status{}, fmt.Errorf("pipeline predecessor of %s: %w", code, ErrNotFound)
}

// Walk greedily follows pipeline-kind edges from code until a terminal state,
// returning the ordered transitions. The walk is the planner's hypothetical
// run; each step must still execute and succeed before it counts as progress.
func (c *Catalog) Walk(from Code) ([]Transition, error) {
	if _, err := c.Status(from); err != nil {
		return nil, err
	}
	var path []Transition
	visited := map[string]bool{from.String(): true}
	cur := from
	for {
		next, err := c.NextStatus(cur)
		if errors.Is(err, ErrNotFound) {
			return path, nil
		}
		if err != nil {
			return nil, err
		}
		if visited[next.Code.String()] {
			return nil, fmt.Errorf("catalog: cycle through %s", next.Code)
		}
		visited[next.Code.String()] = true
		path = append(path, Transition{From: cur, To: next.Code, Kind: KindPipeline})
		cur = next.Code
	}
}
