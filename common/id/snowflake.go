// Package id mints the int64 primary keys used for accounts, organizations,
// invitations and recovery jobs.
package id

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Node IDs per binary. Two processes sharing a node ID can mint colliding IDs.
const (
	NodeServer int64 = 1
	NodeWorker int64 = 2
)

// epoch is 2025-01-01 UTC; IDs stay positive and short for the portal's lifetime.
var epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	node    *snowflake.Node
	initErr error
	once    sync.Once
)

// Init prepares the generator for this process. Later calls are no-ops and
// return the first call's result.
func Init(nodeID int64) error {
	once.Do(func() {
		snowflake.Epoch = epoch.UnixMilli()
		node, initErr = snowflake.NewNode(nodeID)
		if initErr != nil {
			initErr = fmt.Errorf("snowflake node %d: %w", nodeID, initErr)
		}
	})
	return initErr
}

// New returns a time-ordered unique ID. Init must have succeeded.
func New() int64 {
	if node == nil {
		panic("id: New called before Init")
	}
	return node.Generate().Int64()
}

// CreatedAt recovers the mint time encoded in an ID.
func CreatedAt(v int64) time.Time {
	return time.UnixMilli(snowflake.ParseInt64(v).Time())
}
