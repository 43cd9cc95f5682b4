// Package testing provides a reusable test suite for catalog.Store
// implementations. It tests the interface contract, not implementation
// details, so the same suite runs against the memory and Badger stores.
package testing

import (
	"testing"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// StoreTestSuite exercises the full catalog.Store contract.
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test, ensuring isolation.
	NewStore func(t *testing.T) catalog.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Users", suite.RunUserTests)
	t.Run("Folders", suite.RunFolderTests)
	t.Run("FolderNames", suite.RunFolderNameTests)
	t.Run("Healthcheck", suite.RunHealthcheckTests)
}
