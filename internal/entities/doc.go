// Package entities holds the gorm models shared by the repositories,
// services and HTTP controllers.
//
// All primary keys are auto-increment uint values and rows are hard deleted.
// Relations that must never dangle (library entries, reviews, votes) are
// removed together with their book inside one transaction.
package entities
