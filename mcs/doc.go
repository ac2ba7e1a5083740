// Package mcs drives Monte Carlo uncertainty analysis over a parameterized
// field emissions model: it samples distributions for designated input
// parameters, evaluates the model once per trial, and aggregates results and
// failures across trials.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - registry.go: the distribution registry and qualified parameter names
//   - simulation.go: the on-disk simulation layout and trial-data generation
//   - runner.go: per-trial model instantiation and failure isolation
//
// # Architecture
//
// The physical model is an external collaborator behind the interfaces in
// model.go (Model, ModelLoader, Evaluator); the reference implementation
// lives in mcs/fieldmodel. The engine's correctness invariant is that every
// trial evaluates a model freshly instantiated from the cached, immutable
// template stored in the simulation directory. No trial can observe state
// mutated by another, which is also what makes parallel and distributed
// execution safe without locking.
//
// Data flow: Registry → Generate (LHS over frozen random variables, one
// trial_data.csv per field) → RunField (one fresh model per trial) →
// SaveTrialResults (results.csv + failures.csv per field).
package mcs
