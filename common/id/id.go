// Package id generates snowflake identifiers for all persisted entities.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init configures the snowflake node. Each running process must use a
// distinct node ID or concurrently minted IDs can collide.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a new unique int64 identifier. Init must have been called.
func New() int64 {
	return node.Generate().Int64()
}
