// Package model contains the wire and domain types shared by the pipeline,
// the campaign trigger engine, and the API client.
//
// This package holds type definitions and enum predicates only. All other
// internal packages import model; model imports only internal/value. That
// keeps it the foundational layer with no dependency cycles.
//
// All JSON tags use snake_case to match the ingestion API.
package model
