// Package service contains the application services that orchestrate
// domain objects, stores, and the task engine to implement the external
// operations of the system.
package service
