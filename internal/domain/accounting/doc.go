// Package accounting contains the domain model for synchronizing local
// salon data (customers, orders, payments) to external accounting systems.
//
// It defines the AccountingProvider port interface, the EntityMapping entity
// linking local records to their remote counterparts, per-tenant provider
// settings including the OAuth token lifecycle, and the append-only sync log.
// Concrete provider clients (Fiken, Tripletex, Unimicro, DNB Regnskap) live in
// the infrastructure layer.
package accounting
