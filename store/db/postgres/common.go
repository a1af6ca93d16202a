package postgres

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// placeholder returns the n-th positional placeholder for PostgreSQL.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// nullVector scans a nullable pgvector column. A NULL column decodes to
// an invalid (absent) vector rather than an error.
type nullVector struct {
	vector pgvector.Vector
	valid  bool
}

func (n *nullVector) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	n.valid = true
	return n.vector.Scan(src)
}

// Slice returns the decoded vector, or nil when the column was NULL.
func (n *nullVector) Slice() []float32 {
	if !n.valid {
		return nil
	}
	return n.vector.Slice()
}

// encodeVector converts an embedding to a nullable pgvector value.
func encodeVector(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
