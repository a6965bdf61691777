// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - inventory.go: stock items, stock movements and stock locations
//   - fulfillment.go: read-only views of upstream shipments, inventory units and variants
//   - outbox.go: outbox model for event delivery
//
// The migrations under migrations/ are the source of truth for the schema; AutoMigrate is
// only used against SQLite in tests.
package models
