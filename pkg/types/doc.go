// Package types defines the Cart and KVStore interfaces, the line item entity
// with its cart operations, configuration, and the standard errors for the
// basket cart store.
package types
