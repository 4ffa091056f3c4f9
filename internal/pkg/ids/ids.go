// Package ids generates the external identifiers of orders and payment attempts.
package ids

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
)

// OrderNumberPrefix starts every order number.
const OrderNumberPrefix = "ORD-"

// Generator issues order numbers and payment attempt references.
type Generator interface {
	OrderNumber() string
	PaymentReference() string
}

// Snowflake generates order numbers from a snowflake node and references as ULIDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node id (0..1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

// OrderNumber returns a new base-10 snowflake id with the order prefix and a
// trailing Luhn check digit.
func (g *Snowflake) OrderNumber() string {
	id := g.node.Generate().String()
	return OrderNumberPrefix + id + string(checkDigit(id))
}

// PaymentReference returns a new monotonic ULID.
func (g *Snowflake) PaymentReference() string {
	return ulid.Make().String()
}

// ValidReference reports whether s looks like a reference issued by PaymentReference.
func ValidReference(s string) bool {
	_, err := ulid.ParseStrict(strings.TrimSpace(s))
	return err == nil
}
