// Package publisher defines the downstream publishing targets of the update
// event dispatcher. Every publisher carries a responsibility tag; the
// dispatcher selects which responsibilities fire for a given well class and
// fans the update out to the matching publishers.
//
// Concrete targets live in the sink subpackage and register themselves with
// Register at init time. Build assembles the configured set, wrapping each
// publisher in a node filter when patterns are configured.
package publisher
