// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers (ToDomain / XModelFromDomain) convert between the two
// 4. Stores in the persistence package only speak persistence models to GORM
//
// Structure:
// - base.go: BaseModel and the JSON column helpers
// - catalog.go: products, product_variants, product_terms
// - taxonomy.go: attributes, terms, term_meta
// - media.go: media
// - order.go: orders, order_lines
// - integration.go: sync_states
//
// JSON columns are never NULL; absent values are stored as the JSON literal null.
package models
