// Package integration contains the catalog synchronization bounded context.
// It models the reconciliation between the Aralco retail backend and the
// storefront product database.
//
// Key concepts:
//   - RemoteCatalog: Port interface for the Aralco API (products, stock, taxonomy, customers, orders)
//   - ProductStore, TermStore, MediaStore: Ports for the storefront entity store
//   - LocalProduct / Variant: Storefront documents joined to remote records by external id and grid uid
//   - Term / Attribute: Taxonomy entities keyed by derived slugs
//   - SyncState: Change-window bookkeeping per sync type
//   - OrderPayload: Remote sales transaction assembled from a storefront order
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
