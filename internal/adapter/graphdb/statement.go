package graphdb

// Statement is a parameterised Cypher query. Values are always passed as
// parameters, never interpolated into Cypher text.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Record is a single result row keyed by column name.
type Record = map[string]any

// Counters summarises the updates performed by a write transaction.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.NodesCreated += other.NodesCreated
	c.NodesDeleted += other.NodesDeleted
	c.RelationshipsCreated += other.RelationshipsCreated
	c.RelationshipsDeleted += other.RelationshipsDeleted
	c.PropertiesSet += other.PropertiesSet
}

// WriteResult is the outcome of a write transaction: the records of every
// statement in execution order plus the summed counters.
type WriteResult struct {
	Records  []Record
	Counters Counters
}
